package shop_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/bdexemplos/internal/schema"
	"github.com/johnwards/bdexemplos/internal/seed"
	"github.com/johnwards/bdexemplos/internal/seed/shop"
	"github.com/johnwards/bdexemplos/internal/testhelpers"
)

func TestMoney(t *testing.T) {
	assert.True(t, shop.Money("19.99").Equal(decimal.RequireFromString("19.99")))
	assert.True(t, shop.Money("19.996").Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, "0.00", shop.Money("0").StringFixed(2))
}

func TestQuant2(t *testing.T) {
	assert.Equal(t, "11.00", shop.Quant2(decimal.RequireFromString("10.999")).StringFixed(2))
	assert.Equal(t, "10.00", shop.Quant2(decimal.RequireFromString("10.001")).StringFixed(2))
	assert.Equal(t, "0.13", shop.Quant2(decimal.RequireFromString("0.125")).StringFixed(2))
}

func TestStaticEntities(t *testing.T) {
	suppliers, products, clients := shop.StaticEntities()

	require.Len(t, suppliers, 3)
	assert.Equal(t, shop.Supplier{ID: 1, Name: "Nike", Email: "sales@nike.pt"}, suppliers[0])
	assert.Len(t, products, 23)
	assert.Len(t, clients, 10)
}

func TestSizeForProduct(t *testing.T) {
	r := seed.NewRand(42)

	for range 50 {
		assert.Contains(t, []string{"40", "41", "42", "43", "44", "45"}, shop.SizeForProduct(1, r))
	}
	for _, pid := range []int{2, 5, 6} {
		assert.Contains(t, []string{"S", "M", "L", "XL"}, shop.SizeForProduct(pid, r))
	}
	for _, pid := range []int{4, 7, 8, 9} {
		assert.Equal(t, "U", shop.SizeForProduct(pid, r))
	}
	assert.Contains(t, []string{"0.5L", "1L"}, shop.SizeForProduct(11, r))
	assert.Contains(t, []string{"S", "M", "L"}, shop.SizeForProduct(14, r))
}

func TestPracticedPriceRange(t *testing.T) {
	r := seed.NewRand(12345)
	base := decimal.RequireFromString("100.00")
	lo, hi := decimal.RequireFromString("90.00"), decimal.RequireFromString("100.00")

	for range 100 {
		p := shop.PracticedPrice(base, r)
		assert.True(t, p.GreaterThanOrEqual(lo), "price %s", p)
		assert.True(t, p.LessThanOrEqual(hi), "price %s", p)
		assert.True(t, p.Equal(shop.Quant2(p)))
	}
}

func TestOrdersAndLinesMinimal(t *testing.T) {
	_, products, clients := shop.StaticEntities()
	orders, lines, err := shop.OrdersAndLines(seed.NewRand(999), products, clients, shop.MinOrders)
	require.NoError(t, err)

	assert.Len(t, orders, 50)
	assert.GreaterOrEqual(t, len(lines), 50)

	numbers := map[string]bool{}
	for _, o := range orders {
		numbers[o.Number] = true
	}
	for _, l := range lines {
		assert.True(t, numbers[l.OrderNumber], "line for unknown order %s", l.OrderNumber)
		assert.GreaterOrEqual(t, l.ProductID, 1)
		assert.LessOrEqual(t, l.ProductID, 20, "products 21-23 are never sold")
		assert.GreaterOrEqual(t, l.Quantity, 1)
	}
}

func TestOrdersAndLinesGuarantees(t *testing.T) {
	_, products, clients := shop.StaticEntities()
	orders, lines, err := shop.OrdersAndLines(seed.NewRand(12345), products, clients, shop.DefaultOrders)
	require.NoError(t, err)
	require.Len(t, orders, shop.DefaultOrders)

	var dec1 int
	months := map[time.Month]bool{}
	for _, o := range orders {
		if o.Date.Equal(seed.Date(2023, time.December, 1)) {
			dec1++
		}
		if o.Date.Year() == 2025 {
			months[o.Date.Month()] = true
		}
		assert.True(t, o.Date.Year() >= 2023 && o.Date.Year() <= 2025, "order %s on %s", o.Number, o.Date)
	}
	assert.Equal(t, 2, dec1)
	assert.Len(t, months, 12)

	big := map[int]bool{}
	type key struct {
		order string
		pid   int
		size  string
	}
	seen := map[key]bool{}
	for _, l := range lines {
		if l.OrderNumber == "E2025-06-BIG01" {
			big[l.ProductID] = true
		}
		k := key{l.OrderNumber, l.ProductID, l.Size}
		assert.False(t, seen[k], "duplicate line %v", k)
		seen[k] = true
	}
	assert.Len(t, big, 11)
	assert.True(t, big[1])
}

func TestOrdersAndLinesTooFew(t *testing.T) {
	_, products, clients := shop.StaticEntities()
	_, _, err := shop.OrdersAndLines(seed.NewRand(42), products, clients, 49)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_orders should be reasonably large")
}

func TestOrdersAndLinesDeterministic(t *testing.T) {
	_, products, clients := shop.StaticEntities()
	o1, l1, err := shop.OrdersAndLines(seed.NewRand(7), products, clients, 120)
	require.NoError(t, err)
	o2, l2, err := shop.OrdersAndLines(seed.NewRand(7), products, clients, 120)
	require.NoError(t, err)

	assert.Equal(t, o1, o2)
	assert.Equal(t, l1, l2)
}

func TestMySQLStatements(t *testing.T) {
	stmts, err := schema.Statements(schema.MySQL, "TEST_DB", shop.Tables())
	require.NoError(t, err)
	require.Len(t, stmts, 7)

	assert.Contains(t, stmts[0], "CREATE DATABASE IF NOT EXISTS `TEST_DB`")
	assert.Equal(t, "USE `TEST_DB`", stmts[1])
	for i, table := range []string{"fornecedores", "produtos", "clientes", "encomendas", "detalhes_venda"} {
		assert.Contains(t, stmts[i+2], "CREATE TABLE IF NOT EXISTS `"+table+"`")
	}
	assert.Contains(t, stmts[6], "REFERENCES `encomendas` (`Num_Encomenda`) ON UPDATE CASCADE ON DELETE CASCADE")

	_, err = schema.Statements(schema.MySQL, "   ", shop.Tables())
	assert.EqualError(t, err, "database must be non-empty")
}

func TestSeedSQLite(t *testing.T) {
	db := testhelpers.NewTestDB(t)

	ds, err := shop.Build(seed.NewRand(shop.Domain.Seed), 200)
	require.NoError(t, err)
	report, err := seed.NewRunner(db, schema.SQLite, nil).Run(context.Background(), ds, seed.Options{BatchSize: 64})
	require.NoError(t, err)

	assert.Equal(t, 3, testhelpers.CountRows(t, db, "fornecedores"))
	assert.Equal(t, 23, testhelpers.CountRows(t, db, "produtos"))
	assert.Equal(t, 10, testhelpers.CountRows(t, db, "clientes"))
	assert.Equal(t, 200, testhelpers.CountRows(t, db, "encomendas"))

	lines, _ := ds.Batch("detalhes_venda")
	assert.Equal(t, len(lines.Rows), testhelpers.CountRows(t, db, "detalhes_venda"))
	assert.Equal(t, "fornecedores", report.Tables[0].Table)

	var sold int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM detalhes_venda WHERE ID_Produto IN (21, 22, 23)`).Scan(&sold))
	assert.Zero(t, sold)
}
