// Copyright 2025 Certen Protocol

package commitment

import (
	"strings"
	"testing"

	"github.com/capio-labs/proofbundle/internal/capcrypto"
	"github.com/stretchr/testify/require"
)

func TestSupplierRootDeterministic(t *testing.T) {
	rows := []Supplier{{Name: "S", Jurisdiction: "DE", Tier: 1}, {Name: "S", Jurisdiction: "DE", Tier: 1}}
	r1, err := SupplierRoot(rows)
	require.NoError(t, err)
	r2, err := SupplierRoot(rows)
	require.NoError(t, err)
	require.Equal(t, r1, r2)
}

func TestSupplierRootOrderSensitive(t *testing.T) {
	a := []Supplier{{Name: "A", Jurisdiction: "DE", Tier: 1}, {Name: "B", Jurisdiction: "FR", Tier: 2}}
	b := []Supplier{{Name: "B", Jurisdiction: "FR", Tier: 2}, {Name: "A", Jurisdiction: "DE", Tier: 1}}
	ra, err := SupplierRoot(a)
	require.NoError(t, err)
	rb, err := SupplierRoot(b)
	require.NoError(t, err)
	require.NotEqual(t, ra, rb)
}

func TestEmptyListRootIsBlake3OfEmptyString(t *testing.T) {
	root, err := SupplierRoot(nil)
	require.NoError(t, err)
	want := capcrypto.BLAKE3([]byte{})
	require.Equal(t, want, root)

	hexStr := capcrypto.HexEncode0x(root[:])
	require.Len(t, hexStr, 66)
}

func TestCompanyRootBindsBothRoots(t *testing.T) {
	supplierRoot, err := SupplierRoot([]Supplier{{Name: "A", Jurisdiction: "DE", Tier: 1}})
	require.NoError(t, err)
	uboRoot, err := UboRoot([]Ubo{{Name: "P", Birthdate: "1980-01-01", Citizenship: "DE"}})
	require.NoError(t, err)

	company := CompanyRoot(supplierRoot, uboRoot)
	require.NotEqual(t, supplierRoot, company)
	require.NotEqual(t, uboRoot, company)

	// deterministic
	require.Equal(t, company, CompanyRoot(supplierRoot, uboRoot))
}

func TestComputeRendersHexWithCounts(t *testing.T) {
	c, err := Compute(
		[]Supplier{{Name: "A", Jurisdiction: "DE", Tier: 1}},
		[]Ubo{{Name: "P", Birthdate: "1980-01-01", Citizenship: "DE"}},
	)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(c.SupplierRoot, "0x"))
	require.Len(t, c.SupplierRoot, 66)
	require.Equal(t, 1, *c.SupplierCount)
	require.Equal(t, 1, *c.UboCount)
}

func TestLoadSuppliersCSVPreservesOrder(t *testing.T) {
	csvData := "name,jurisdiction,tier\nZeta,DE,2\nAlpha,FR,1\n"
	rows, err := LoadSuppliersCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Zeta", rows[0].Name)
	require.Equal(t, "Alpha", rows[1].Name)
}

func TestLoadUbosCSV(t *testing.T) {
	csvData := "name,birthdate,citizenship\nJane Doe,1990-05-01,DE\n"
	rows, err := LoadUbosCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Jane Doe", rows[0].Name)
}
