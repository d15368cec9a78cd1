// Package shop builds the e-commerce sample database: suppliers, products,
// clients, orders and order lines.
//
// The fixed part of the data backs specific query exercises: products 21 to
// 23 are never sold, there are orders on 2023-12-01, every month of 2025 has
// at least one order and one 2025 order holds more than ten distinct
// products.
package shop

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johnwards/bdexemplos/internal/schema"
	"github.com/johnwards/bdexemplos/internal/seed"
)

const (
	// DefaultOrders is the number of orders generated by Domain.
	DefaultOrders = 1000
	// MinOrders is the smallest order count that leaves room for the fixed
	// orders.
	MinOrders = 50

	bigOrder = "E2025-06-BIG01"
)

var neverSold = []int{21, 22, 23}

// Supplier is a row of fornecedores.
type Supplier struct {
	ID    int
	Name  string
	Email string
}

// Product is a row of produtos. BasePrice is the catalogue price.
type Product struct {
	ID         int
	Name       string
	BasePrice  decimal.Decimal
	SupplierID int
}

// Client is a row of clientes, keyed by email.
type Client struct {
	Email      string
	Name       string
	Street     string
	Locality   string
	PostalCode string
}

// Order is a row of encomendas.
type Order struct {
	Number      string
	Date        time.Time
	ClientEmail string
}

// OrderLine is a row of detalhes_venda with the price actually charged.
type OrderLine struct {
	OrderNumber string
	ProductID   int
	Size        string
	Quantity    int
	Price       decimal.Decimal
}

// Money parses s and rounds it to cents. It panics on malformed input and is
// meant for literals.
func Money(s string) decimal.Decimal {
	return Quant2(decimal.RequireFromString(s))
}

// Quant2 rounds d to two decimal places, halves away from zero.
func Quant2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// StaticEntities returns the fixed suppliers, products and clients.
func StaticEntities() ([]Supplier, []Product, []Client) {
	// Adidas is deliberately absent.
	suppliers := []Supplier{
		{1, "Nike", "sales@nike.pt"},
		{2, "LuxuryCo", "sales@luxuryco.pt"},
		{3, "Casa do Norte", "contacto@casadonorte.pt"},
	}

	products := []Product{
		{1, "Nike Air Max Pro", Money("600.00"), 1},
		{2, "Nike Running Jacket", Money("550.00"), 1},
		{3, "Nike Socks Pack", Money("19.99"), 1},
		{4, "Nike Smartwatch", Money("799.00"), 1},
		{5, "Nike Cap", Money("24.99"), 1},
		{6, "Nike Training Bag", Money("45.00"), 1},
		{7, "Luxury Watch X", Money("1200.00"), 2},
		{8, "Luxury Handbag", Money("950.00"), 2},
		{9, "Luxury Sunglasses", Money("320.00"), 2},
		{10, "Queijo Curado", Money("8.50"), 3},
		{11, "Azeite Virgem", Money("9.70"), 3},
		{12, "Enchido Regional", Money("5.90"), 3},
		{13, "Mel Multifloral", Money("6.10"), 3},
		{14, "Chá Verde", Money("3.80"), 3},
		{15, "Bolachas de Aveia", Money("3.20"), 3},
		{16, "Compota de Figo", Money("4.20"), 3},
		{17, "Doce de Abóbora", Money("4.00"), 3},
		{18, "Café Moído", Money("4.90"), 3},
		{19, "Granola Artesanal", Money("6.40"), 3},
		{20, "Chocolate Negro", Money("2.90"), 3},
		// never sold
		{21, "Nike Limited Edition Sneakers", Money("1500.00"), 1},
		{22, "Luxury Perfume", Money("180.00"), 2},
		{23, "Queijo Especial", Money("14.90"), 3},
	}

	clients := []Client{
		{"ana.silva@email.pt", "Ana Silva", "Rua das Flores 10", "Porto", "4000-100"},
		{"joao.pereira@email.pt", "João Pereira", "Av. da República 50", "Gaia", "4400-200"},
		{"rita.costa@email.pt", "Rita Costa", "Travessa do Sol 3", "Braga", "4700-300"},
		{"miguel.santos@email.pt", "Miguel Santos", "Rua do Campo 8", "Aveiro", "3800-010"},
		{"ines.martins@email.pt", "Inês Martins", "Av. Central 120", "Lisboa", "1100-020"},
		{"tiago.ferreira@email.pt", "Tiago Ferreira", "Rua Nova 23", "Coimbra", "3000-050"},
		{"sofia.rocha@email.pt", "Sofia Rocha", "Av. do Mar 9", "Faro", "8000-060"},
		{"carla.mendes@email.pt", "Carla Mendes", "Rua da Ponte 1", "Viseu", "3500-070"},
		{"pedro.lima@email.pt", "Pedro Lima", "Rua do Pinhal 77", "Leiria", "2400-080"},
		{"beatriz.sousa@email.pt", "Beatriz Sousa", "Rua do Mercado 5", "Setúbal", "2900-090"},
	}

	return suppliers, products, clients
}

// SizeForProduct picks a size that makes sense for the product: shoe sizes
// for the sneakers, letter sizes for apparel, U for one-size items and a
// volume for olive oil.
func SizeForProduct(pid int, r *rand.Rand) string {
	switch pid {
	case 1:
		return strconv.Itoa(seed.IntBetween(r, 40, 45))
	case 2, 5, 6:
		return seed.Choice(r, []string{"S", "M", "L", "XL"})
	case 4, 7, 8, 9:
		return "U"
	case 11:
		return seed.Choice(r, []string{"0.5L", "1L"})
	default:
		return seed.Choice(r, []string{"S", "M", "L"})
	}
}

var (
	fivePercentOff = decimal.RequireFromString("0.95")
	tenPercentOff  = decimal.RequireFromString("0.90")
)

// PracticedPrice returns base unchanged 70% of the time, 5% off 25% of the
// time and 10% off otherwise, rounded to cents.
func PracticedPrice(base decimal.Decimal, r *rand.Rand) decimal.Decimal {
	u := r.Float64()
	switch {
	case u < 0.70:
		return Quant2(base)
	case u < 0.95:
		return Quant2(base.Mul(fivePercentOff))
	default:
		return Quant2(base.Mul(tenPercentOff))
	}
}

type lineBuilder struct {
	r     *rand.Rand
	base  map[int]decimal.Decimal
	lines []OrderLine
}

func (b *lineBuilder) add(order string, pid, qty int) error {
	if slices.Contains(neverSold, pid) {
		return fmt.Errorf("order %s: product %d is never sold", order, pid)
	}
	if qty <= 0 {
		return fmt.Errorf("order %s: qty must be > 0", order)
	}
	base, ok := b.base[pid]
	if !ok {
		return fmt.Errorf("order %s: unknown product %d", order, pid)
	}
	size := SizeForProduct(pid, b.r)
	b.lines = append(b.lines, OrderLine{
		OrderNumber: order,
		ProductID:   pid,
		Size:        size,
		Quantity:    qty,
		Price:       PracticedPrice(base, b.r),
	})
	return nil
}

// OrdersAndLines builds totalOrders orders and their lines: the fixed orders
// first, then random orders across 2024 and 2025 (65% in 2025).
func OrdersAndLines(r *rand.Rand, products []Product, clients []Client, totalOrders int) ([]Order, []OrderLine, error) {
	if totalOrders < MinOrders {
		return nil, nil, fmt.Errorf("total_orders should be reasonably large (>=%d), got %d", MinOrders, totalOrders)
	}
	if len(clients) < 5 {
		return nil, nil, errors.New("at least 5 clients are required")
	}

	b := &lineBuilder{r: r, base: make(map[int]decimal.Decimal, len(products))}
	var sellable []int
	for _, p := range products {
		b.base[p.ID] = p.BasePrice
		if !slices.Contains(neverSold, p.ID) {
			sellable = append(sellable, p.ID)
		}
	}

	type fixedLine struct{ order, pid, qty int }
	var orders []Order

	dec1 := seed.Date(2023, time.December, 1)
	orders = append(orders,
		Order{"E2023-1201-0001", dec1, clients[0].Email},
		Order{"E2023-1201-0002", dec1, clients[1].Email},
	)
	for _, l := range []fixedLine{{0, 1, 1}, {1, 1, 1}, {0, 10, 2}, {1, 3, 3}} {
		if err := b.add(orders[l.order].Number, l.pid, l.qty); err != nil {
			return nil, nil, err
		}
	}

	for m := time.January; m <= time.December; m++ {
		num := fmt.Sprintf("E2025-%02d-FIX01", int(m))
		orders = append(orders, Order{num, seed.Date(2025, m, 15), clients[2].Email})
		pids := [][2]int{{7, 1}, {3, 2}, {13, 2}}
		if m%3 == 0 {
			pids = append(pids, [2]int{2, 1})
		}
		for _, p := range pids {
			if err := b.add(num, p[0], p[1]); err != nil {
				return nil, nil, err
			}
		}
	}

	orders = append(orders, Order{bigOrder, seed.Date(2025, time.June, 20), clients[4].Email})
	withoutSneakers := slices.DeleteFunc(slices.Clone(sellable), func(pid int) bool { return pid == 1 })
	for _, pid := range append(seed.Sample(r, withoutSneakers, 10), 1) {
		if err := b.add(bigOrder, pid, seed.IntBetween(r, 1, 3)); err != nil {
			return nil, nil, err
		}
	}

	remaining := totalOrders - len(orders)
	for i := 1; i <= remaining; i++ {
		num := fmt.Sprintf("E-RND-%04d", i)

		start, end := seed.Date(2024, time.January, 1), seed.Date(2025, time.January, 1)
		if r.Float64() < 0.65 {
			start, end = end, seed.Date(2026, time.January, 1)
		}
		day, err := seed.DateBetween(r, start, end)
		if err != nil {
			return nil, nil, err
		}
		orders = append(orders, Order{num, day, seed.Choice(r, clients).Email})

		lo, hi := 1, 6
		if u := r.Float64(); u >= 0.75 && u < 0.95 {
			lo, hi = 7, 10
		}
		chosen := seed.Sample(r, sellable, seed.IntBetween(r, lo, hi))
		if r.Float64() < 0.20 && !slices.Contains(chosen, 1) {
			chosen[0] = 1
		}
		for _, pid := range chosen {
			if err := b.add(num, pid, seed.IntBetween(r, 1, 4)); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := checkGuarantees(orders, b.lines); err != nil {
		return nil, nil, err
	}
	return orders, b.lines, nil
}

func checkGuarantees(orders []Order, lines []OrderLine) error {
	big := map[int]bool{}
	for _, l := range lines {
		if slices.Contains(neverSold, l.ProductID) {
			return fmt.Errorf("never-sold product %d was sold", l.ProductID)
		}
		if l.OrderNumber == bigOrder {
			big[l.ProductID] = true
		}
	}
	if len(big) <= 10 {
		return fmt.Errorf("order %s has %d distinct products, want more than 10", bigOrder, len(big))
	}

	months := map[time.Month]bool{}
	dec1 := false
	for _, o := range orders {
		if o.Date.Equal(seed.Date(2023, time.December, 1)) {
			dec1 = true
		}
		if o.Date.Year() == 2025 {
			months[o.Date.Month()] = true
		}
	}
	if !dec1 {
		return errors.New("missing 2023-12-01 orders")
	}
	for m := time.January; m <= time.December; m++ {
		if !months[m] {
			return fmt.Errorf("missing orders for 2025-%02d", int(m))
		}
	}
	return nil
}

// Tables returns the shop schema.
func Tables() []schema.Table {
	return []schema.Table{
		{
			Name: "fornecedores",
			Columns: []schema.Column{
				{Name: "ID_Fornecedor", Type: "INT"},
				{Name: "Nome_Fornecedor", Type: "VARCHAR(100)"},
				{Name: "Contacto_Email", Type: "VARCHAR(100)"},
			},
			PrimaryKey: []string{"ID_Fornecedor"},
			Indexes: []schema.Index{
				{Name: "uq_fornecedores_email", Columns: []string{"Contacto_Email"}, Unique: true},
				{Name: "uq_fornecedores_nome", Columns: []string{"Nome_Fornecedor"}, Unique: true},
			},
		},
		{
			Name: "produtos",
			Columns: []schema.Column{
				{Name: "ID_Produto", Type: "INT"},
				{Name: "Nome_Produto", Type: "VARCHAR(120)"},
				{Name: "Preco_Base", Type: "DECIMAL(10,2)"},
				{Name: "ID_Fornecedor", Type: "INT"},
			},
			PrimaryKey: []string{"ID_Produto"},
			Indexes: []schema.Index{
				{Name: "idx_produtos_fornecedor", Columns: []string{"ID_Fornecedor"}},
				{Name: "idx_produtos_preco", Columns: []string{"Preco_Base"}},
			},
			ForeignKeys: []schema.ForeignKey{{
				Name: "fk_produtos_fornecedores", Columns: []string{"ID_Fornecedor"},
				RefTable: "fornecedores", RefColumns: []string{"ID_Fornecedor"},
			}},
		},
		{
			Name: "clientes",
			Columns: []schema.Column{
				{Name: "Email_Cliente", Type: "VARCHAR(100)"},
				{Name: "Nome_Cliente", Type: "VARCHAR(120)"},
				{Name: "Rua", Type: "VARCHAR(150)"},
				{Name: "Localidade", Type: "VARCHAR(80)"},
				{Name: "Codigo_Postal", Type: "VARCHAR(20)"},
			},
			PrimaryKey: []string{"Email_Cliente"},
		},
		{
			Name: "encomendas",
			Columns: []schema.Column{
				{Name: "Num_Encomenda", Type: "VARCHAR(30)"},
				{Name: "Data", Type: "DATE"},
				{Name: "Email_Cliente", Type: "VARCHAR(100)"},
			},
			PrimaryKey: []string{"Num_Encomenda"},
			Indexes: []schema.Index{
				{Name: "idx_encomendas_data", Columns: []string{"Data"}},
				{Name: "idx_encomendas_cliente", Columns: []string{"Email_Cliente"}},
			},
			ForeignKeys: []schema.ForeignKey{{
				Name: "fk_encomendas_clientes", Columns: []string{"Email_Cliente"},
				RefTable: "clientes", RefColumns: []string{"Email_Cliente"},
			}},
		},
		{
			Name: "detalhes_venda",
			Columns: []schema.Column{
				{Name: "Num_Encomenda", Type: "VARCHAR(30)"},
				{Name: "ID_Produto", Type: "INT"},
				{Name: "Tamanho", Type: "VARCHAR(10)"},
				{Name: "Quantidade", Type: "INT"},
				{Name: "Preco_Praticado", Type: "DECIMAL(10,2)"},
			},
			PrimaryKey: []string{"Num_Encomenda", "ID_Produto", "Tamanho"},
			Indexes:    []schema.Index{{Name: "idx_dv_produto", Columns: []string{"ID_Produto"}}},
			ForeignKeys: []schema.ForeignKey{
				{
					Name: "fk_dv_encomendas", Columns: []string{"Num_Encomenda"},
					RefTable: "encomendas", RefColumns: []string{"Num_Encomenda"}, OnDelete: "CASCADE",
				},
				{
					Name: "fk_dv_produtos", Columns: []string{"ID_Produto"},
					RefTable: "produtos", RefColumns: []string{"ID_Produto"},
				},
			},
		},
	}
}

// Build returns the shop dataset with totalOrders orders.
func Build(r *rand.Rand, totalOrders int) (*seed.Dataset, error) {
	suppliers, products, clients := StaticEntities()
	orders, lines, err := OrdersAndLines(r, products, clients, totalOrders)
	if err != nil {
		return nil, err
	}

	ds := &seed.Dataset{Name: "loja", Tables: Tables()}

	sup := seed.Batch{Table: "fornecedores", Columns: []string{"ID_Fornecedor", "Nome_Fornecedor", "Contacto_Email"}}
	for _, s := range suppliers {
		sup.Rows = append(sup.Rows, []any{s.ID, s.Name, s.Email})
	}
	prod := seed.Batch{Table: "produtos", Columns: []string{"ID_Produto", "Nome_Produto", "Preco_Base", "ID_Fornecedor"}}
	for _, p := range products {
		prod.Rows = append(prod.Rows, []any{p.ID, p.Name, p.BasePrice.StringFixed(2), p.SupplierID})
	}
	cli := seed.Batch{Table: "clientes", Columns: []string{"Email_Cliente", "Nome_Cliente", "Rua", "Localidade", "Codigo_Postal"}}
	for _, c := range clients {
		cli.Rows = append(cli.Rows, []any{c.Email, c.Name, c.Street, c.Locality, c.PostalCode})
	}
	ord := seed.Batch{Table: "encomendas", Columns: []string{"Num_Encomenda", "Data", "Email_Cliente"}}
	for _, o := range orders {
		ord.Rows = append(ord.Rows, []any{o.Number, seed.DateValue(o.Date), o.ClientEmail})
	}
	det := seed.Batch{Table: "detalhes_venda", Columns: []string{"Num_Encomenda", "ID_Produto", "Tamanho", "Quantidade", "Preco_Praticado"}}
	for _, l := range lines {
		det.Rows = append(det.Rows, []any{l.OrderNumber, l.ProductID, l.Size, l.Quantity, l.Price.StringFixed(2)})
	}

	ds.Batches = []seed.Batch{sup, prod, cli, ord, det}
	return ds, nil
}

// Domain registers the shop dataset.
var Domain = seed.Domain{
	Name:    "loja",
	Aliases: []string{"shop"},
	Short:   "Seed the shop database (suppliers, products, clients, orders)",
	Seed:    12345,
	Tables:  Tables,
	Build: func(r *rand.Rand) (*seed.Dataset, error) {
		return Build(r, DefaultOrders)
	},
}
