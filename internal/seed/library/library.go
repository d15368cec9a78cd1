// Package library builds the library sample database: authors, books,
// readers and loans.
package library

import (
	"math/rand/v2"
	"time"

	"github.com/johnwards/bdexemplos/internal/schema"
	"github.com/johnwards/bdexemplos/internal/seed"
)

// Author is a row of autores.
type Author struct {
	ID      int
	Name    string
	Country string
}

// Book is a row of livros.
type Book struct {
	ID       int
	Title    string
	AuthorID int
	Year     int
	ISBN     string
}

// Reader is a row of leitores.
type Reader struct {
	ID       int
	Name     string
	Email    string
	Register time.Time
}

// Loan is open while Returned is nil.
type Loan struct {
	ID       int
	BookID   int
	ReaderID int
	Loaned   time.Time
	Returned *time.Time
}

// Authors returns the fixed authors.
func Authors() []Author {
	return []Author{
		{1, "José Saramago", "Portugal"},
		{2, "Fernando Pessoa", "Portugal"},
		{3, "Agatha Christie", "Reino Unido"},
		{4, "Gabriel García Márquez", "Colômbia"},
		{5, "Mia Couto", "Moçambique"},
	}
}

// Books returns the fixed books, each by one of Authors.
func Books() []Book {
	return []Book{
		{1, "Memorial do Convento", 1, 1982, "972-21-0123-4"},
		{2, "Ensaio sobre a Cegueira", 1, 1995, "972-21-0124-2"},
		{3, "O Livro do Desassossego", 2, 1982, "972-44-1001-1"},
		{4, "Morte no Nilo", 3, 1937, "978-0-00-711931-8"},
		{5, "O Assassinato de Roger Ackroyd", 3, 1926, "978-0-00-711932-5"},
		{6, "Cem Anos de Solidão", 4, 1967, "978-0-06-088328-7"},
		{7, "O Amor nos Tempos de Cólera", 4, 1985, "978-0-14-024492-2"},
		{8, "Terra Sonâmbula", 5, 1992, "972-21-0501-3"},
		{9, "Um Rio Chamado Tempo, uma Casa Chamada Terra", 5, 2003, "972-21-0512-9"},
		{10, "O Evangelho segundo Jesus Cristo", 1, 1991, "972-21-0125-0"},
	}
}

// Readers returns the fixed readers.
func Readers() []Reader {
	return []Reader{
		{1, "Maria Oliveira", "maria.oliveira@mail.pt", seed.Date(2022, time.March, 10)},
		{2, "António Nunes", "antonio.nunes@mail.pt", seed.Date(2022, time.May, 22)},
		{3, "Catarina Lopes", "catarina.lopes@mail.pt", seed.Date(2023, time.January, 15)},
		{4, "Rui Ferreira", "rui.ferreira@mail.pt", seed.Date(2023, time.August, 7)},
		{5, "Sandra Teixeira", "sandra.teixeira@mail.pt", seed.Date(2024, time.February, 28)},
	}
}

// Loans returns 10 returned loans, 3 open loans and 12 random loans. A random
// loan returns 70% of the time, 14 to 45 days after it started; return dates
// later than asOf are dropped so the loan stays open.
func Loans(r *rand.Rand, asOf time.Time) []Loan {
	var loans []Loan
	add := func(book, reader int, loaned time.Time, returned *time.Time) {
		loans = append(loans, Loan{ID: len(loans) + 1, BookID: book, ReaderID: reader, Loaned: loaned, Returned: returned})
	}
	day := func(y int, m time.Month, d int) time.Time { return seed.Date(y, m, d) }
	ptr := func(t time.Time) *time.Time { return &t }

	returned := []struct {
		book, reader  int
		loaned, until time.Time
	}{
		{1, 1, day(2024, time.January, 5), day(2024, time.January, 25)},
		{3, 2, day(2024, time.February, 10), day(2024, time.March, 10)},
		{6, 1, day(2024, time.March, 1), day(2024, time.March, 28)},
		{4, 3, day(2024, time.April, 12), day(2024, time.May, 10)},
		{8, 2, day(2024, time.May, 20), day(2024, time.June, 18)},
		{2, 4, day(2024, time.June, 1), day(2024, time.June, 29)},
		{7, 1, day(2024, time.July, 15), day(2024, time.August, 12)},
		{5, 3, day(2024, time.August, 1), day(2024, time.August, 30)},
		{9, 5, day(2024, time.September, 10), day(2024, time.October, 8)},
		{10, 4, day(2024, time.October, 1), day(2024, time.October, 29)},
	}
	for _, l := range returned {
		add(l.book, l.reader, l.loaned, ptr(l.until))
	}

	add(1, 3, day(2025, time.January, 6), nil)
	add(4, 5, day(2025, time.January, 15), nil)
	add(6, 2, day(2025, time.February, 1), nil)

	for range 12 {
		book := seed.IntBetween(r, 1, 10)
		reader := seed.IntBetween(r, 1, 5)
		start := day(2024, time.January, 1).AddDate(0, 0, seed.IntBetween(r, 0, 300))
		var back *time.Time
		if r.Float64() < 0.7 {
			if d := start.AddDate(0, 0, seed.IntBetween(r, 14, 45)); !d.After(asOf) {
				back = &d
			}
		}
		add(book, reader, start, back)
	}
	return loans
}

// Tables returns the library schema.
func Tables() []schema.Table {
	return []schema.Table{
		{
			Name: "autores",
			Columns: []schema.Column{
				{Name: "ID_Autor", Type: "INT"},
				{Name: "Nome", Type: "VARCHAR(120)"},
				{Name: "Pais", Type: "VARCHAR(60)"},
			},
			PrimaryKey: []string{"ID_Autor"},
		},
		{
			Name: "livros",
			Columns: []schema.Column{
				{Name: "ID_Livro", Type: "INT"},
				{Name: "Titulo", Type: "VARCHAR(200)"},
				{Name: "ID_Autor", Type: "INT"},
				{Name: "Ano", Type: "SMALLINT"},
				{Name: "ISBN", Type: "VARCHAR(20)"},
			},
			PrimaryKey: []string{"ID_Livro"},
			Indexes: []schema.Index{
				{Name: "uq_livros_isbn", Columns: []string{"ISBN"}, Unique: true},
				{Name: "idx_livros_autor", Columns: []string{"ID_Autor"}},
			},
			ForeignKeys: []schema.ForeignKey{{
				Name: "fk_livros_autor", Columns: []string{"ID_Autor"},
				RefTable: "autores", RefColumns: []string{"ID_Autor"},
			}},
		},
		{
			Name: "leitores",
			Columns: []schema.Column{
				{Name: "ID_Leitor", Type: "INT"},
				{Name: "Nome", Type: "VARCHAR(120)"},
				{Name: "Email", Type: "VARCHAR(100)"},
				{Name: "Data_Inscricao", Type: "DATE"},
			},
			PrimaryKey: []string{"ID_Leitor"},
			Indexes:    []schema.Index{{Name: "uq_leitores_email", Columns: []string{"Email"}, Unique: true}},
		},
		{
			Name: "emprestimos",
			Columns: []schema.Column{
				{Name: "ID_Emprestimo", Type: "INT"},
				{Name: "ID_Livro", Type: "INT"},
				{Name: "ID_Leitor", Type: "INT"},
				{Name: "Data_Emprestimo", Type: "DATE"},
				{Name: "Data_Devolucao", Type: "DATE", Nullable: true},
			},
			PrimaryKey: []string{"ID_Emprestimo"},
			Indexes: []schema.Index{
				{Name: "idx_emp_livro", Columns: []string{"ID_Livro"}},
				{Name: "idx_emp_leitor", Columns: []string{"ID_Leitor"}},
				{Name: "idx_emp_datas", Columns: []string{"Data_Emprestimo", "Data_Devolucao"}},
			},
			ForeignKeys: []schema.ForeignKey{
				{
					Name: "fk_emp_livro", Columns: []string{"ID_Livro"},
					RefTable: "livros", RefColumns: []string{"ID_Livro"},
				},
				{
					Name: "fk_emp_leitor", Columns: []string{"ID_Leitor"},
					RefTable: "leitores", RefColumns: []string{"ID_Leitor"},
				},
			},
		},
	}
}

// Build returns the library dataset with loans as of asOf.
func Build(r *rand.Rand, asOf time.Time) *seed.Dataset {
	ds := &seed.Dataset{Name: "biblioteca", Tables: Tables()}

	authors := seed.Batch{Table: "autores", Columns: []string{"ID_Autor", "Nome", "Pais"}}
	for _, a := range Authors() {
		authors.Rows = append(authors.Rows, []any{a.ID, a.Name, a.Country})
	}
	books := seed.Batch{Table: "livros", Columns: []string{"ID_Livro", "Titulo", "ID_Autor", "Ano", "ISBN"}}
	for _, b := range Books() {
		books.Rows = append(books.Rows, []any{b.ID, b.Title, b.AuthorID, b.Year, b.ISBN})
	}
	readers := seed.Batch{Table: "leitores", Columns: []string{"ID_Leitor", "Nome", "Email", "Data_Inscricao"}}
	for _, rd := range Readers() {
		readers.Rows = append(readers.Rows, []any{rd.ID, rd.Name, rd.Email, seed.DateValue(rd.Register)})
	}
	loans := seed.Batch{Table: "emprestimos", Columns: []string{"ID_Emprestimo", "ID_Livro", "ID_Leitor", "Data_Emprestimo", "Data_Devolucao"}}
	for _, l := range Loans(r, asOf) {
		var returned any
		if l.Returned != nil {
			returned = seed.DateValue(*l.Returned)
		}
		loans.Rows = append(loans.Rows, []any{l.ID, l.BookID, l.ReaderID, seed.DateValue(l.Loaned), returned})
	}

	ds.Batches = []seed.Batch{authors, books, readers, loans}
	return ds
}

// Domain registers the library dataset. Loans are computed against the
// current date.
var Domain = seed.Domain{
	Name:    "biblioteca",
	Aliases: []string{"library"},
	Short:   "Seed the library database (authors, books, readers, loans)",
	Seed:    42,
	Tables:  Tables,
	Build: func(r *rand.Rand) (*seed.Dataset, error) {
		return Build(r, time.Now().UTC()), nil
	},
}
