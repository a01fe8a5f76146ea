package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/platform/logger"
	"github.com/payme/contracts/internal/registry"
	"github.com/payme/contracts/internal/token"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"
)

func run(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func mustKey(t *testing.T) *address.Key {
	t.Helper()
	key, err := address.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}
	return key
}

// setupEnv points the CLI at a fresh filesystem store and acts as admin.
func setupEnv(t *testing.T, admin *address.Key) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("PAYME_STORAGE_BUCKET", "standalone")
	t.Setenv("PAYME_STORAGE_ROOT", root)
	t.Setenv("PAYME_STORAGE_URL", "")
	t.Setenv("PAYME_CLIENT_KEY", admin.Hex())
	t.Setenv("PAYME_CLIENT_MNEMONIC", "")
	return root
}

func openDB(t *testing.T, root string) *db.DB {
	t.Helper()
	ctx := logger.ContextWithNoLogger(context.Background())
	dbConn, err := db.New(ctx, &db.StorageConfig{Bucket: "standalone", Root: root})
	if err != nil {
		t.Fatalf("Failed to open storage : %s", err)
	}
	return dbConn
}

func TestTokenCommands(t *testing.T) {
	admin := mustKey(t)
	root := setupEnv(t, admin)

	contract := mustKey(t).Address().String()
	holder := mustKey(t).Address()

	steps := [][]string{
		{"token", "init", contract, "PaymeToken", "PAYME", "7"},
		{"token", "mint", contract, admin.Address().String(), "1000"},
		{"token", "transfer", contract, holder.String(), "250"},
		{"token", "burn", contract, "50"},
	}
	for _, args := range steps {
		if err := run(args...); err != nil {
			t.Fatalf("%v : %s", args, err)
		}
	}

	err := run("token", "burn", contract, "1000")
	if got := protocol.RejectionFromError(err); got != protocol.ErrInsufficientBalance {
		t.Errorf("got %v, want %v", err, protocol.ErrInsufficientBalance)
	}

	dbConn := openDB(t, root)
	defer dbConn.Close()

	c, _ := address.Decode(contract)
	tok := token.New(dbConn, host.FixedLedger(host.GenesisSequence), c)
	ctx := context.Background()

	tests := []struct {
		holder address.Address
		want   uint64
	}{
		{admin.Address(), 700},
		{holder, 250},
	}
	for _, tt := range tests {
		got, err := tok.Balance(ctx, tt.holder)
		if err != nil {
			t.Fatalf("Failed to get balance : %s", err)
		}
		if got != tt.want {
			t.Errorf("got %v, want %v", got, tt.want)
		}
	}

	supply, err := tok.TotalSupply(ctx)
	if err != nil {
		t.Fatalf("Failed to get supply : %s", err)
	}
	if supply != 950 {
		t.Errorf("got %v, want %v", supply, 950)
	}
}

func TestRegistryCommands(t *testing.T) {
	admin := mustKey(t)
	root := setupEnv(t, admin)

	tokenContract := mustKey(t).Address().String()
	contract := mustKey(t).Address().String()
	alice := mustKey(t).Address()
	bob := mustKey(t).Address()

	roster := "employees:\n" +
		"  - address: " + bob.String() + "\n" +
		"    name: Bob\n" +
		"    salary: 200\n" +
		"    rank: Senior\n"
	rosterPath := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(rosterPath, []byte(roster), 0644); err != nil {
		t.Fatalf("Failed to write roster : %s", err)
	}

	steps := [][]string{
		{"token", "init", tokenContract, "PaymeToken", "PAYME", "7"},
		{"token", "mint", tokenContract, admin.Address().String(), "1000"},
		{"registry", "init", contract, "Acme", tokenContract},
		{"registry", "add", contract, alice.String(), "Alice", "100", "Junior"},
		{"registry", "import", contract, rosterPath},
		{"registry", "update", contract, alice.String(), "--salary", "150"},
		{"registry", "pay-all", contract},
	}
	for _, args := range steps {
		if err := run(args...); err != nil {
			t.Fatalf("%v : %s", args, err)
		}
	}

	err := run("registry", "add", contract, alice.String(), "Alice", "100", "Junior")
	if got := protocol.RejectionFromError(err); got != protocol.ErrEmployeeAlreadyExists {
		t.Errorf("got %v, want %v", err, protocol.ErrEmployeeAlreadyExists)
	}

	dbConn := openDB(t, root)
	defer dbConn.Close()
	ctx := context.Background()

	c, _ := address.Decode(contract)
	reg := registry.New(dbConn, host.FixedLedger(host.GenesisSequence), c)
	inst, err := reg.GetInstitutionInfo(ctx)
	if err != nil {
		t.Fatalf("Failed to get institution : %s", err)
	}
	if inst.EmployeeCount != 2 {
		t.Errorf("got %v, want %v", inst.EmployeeCount, 2)
	}

	tc, _ := address.Decode(tokenContract)
	tok := token.New(dbConn, host.FixedLedger(host.GenesisSequence), tc)

	tests := []struct {
		holder address.Address
		want   uint64
	}{
		{admin.Address(), 650},
		{alice, 150},
		{bob, 200},
	}
	for _, tt := range tests {
		got, err := tok.Balance(ctx, tt.holder)
		if err != nil {
			t.Fatalf("Failed to get balance : %s", err)
		}
		if got != tt.want {
			t.Errorf("got %v, want %v", got, tt.want)
		}
	}
}

func TestIncorrectArgumentCount(t *testing.T) {
	setupEnv(t, mustKey(t))

	for _, args := range [][]string{
		{"token", "mint", mustKey(t).Address().String()},
		{"registry", "pay"},
		{"ledger", "advance", "1", "2"},
	} {
		if err := run(args...); err == nil {
			t.Errorf("%v : expected an error", args)
		}
	}
}
