package library_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/bdexemplos/internal/schema"
	"github.com/johnwards/bdexemplos/internal/seed"
	"github.com/johnwards/bdexemplos/internal/seed/library"
	"github.com/johnwards/bdexemplos/internal/testhelpers"
)

var farFuture = seed.Date(2100, time.January, 1)

func TestStaticData(t *testing.T) {
	authors := library.Authors()
	require.Len(t, authors, 5)
	assert.Equal(t, library.Author{ID: 1, Name: "José Saramago", Country: "Portugal"}, authors[0])

	books := library.Books()
	require.Len(t, books, 10)
	assert.Equal(t, "Memorial do Convento", books[0].Title)
	assert.Equal(t, 1, books[0].AuthorID)
	assert.Equal(t, 1982, books[0].Year)

	readers := library.Readers()
	require.Len(t, readers, 5)
	assert.Equal(t, "Maria Oliveira", readers[0].Name)
	assert.Equal(t, "maria.oliveira@mail.pt", readers[0].Email)
}

func TestLoans(t *testing.T) {
	loans := library.Loans(seed.NewRand(42), farFuture)
	require.Len(t, loans, 25)

	first := loans[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 1, first.BookID)
	assert.Equal(t, 1, first.ReaderID)
	require.NotNil(t, first.Returned)
	assert.Equal(t, "2024-01-25", seed.DateValue(*first.Returned))

	for _, l := range loans[10:13] {
		assert.Nil(t, l.Returned, "loan %d should be open", l.ID)
	}
	for i, l := range loans {
		assert.Equal(t, i+1, l.ID)
		assert.True(t, l.BookID >= 1 && l.BookID <= 10)
		assert.True(t, l.ReaderID >= 1 && l.ReaderID <= 5)
		if l.Returned != nil {
			assert.True(t, l.Returned.After(l.Loaned), "loan %d returned before it started", l.ID)
		}
	}
}

func TestLoansReturnedAfterAsOfStayOpen(t *testing.T) {
	asOf := seed.Date(2024, time.February, 1)
	for _, l := range library.Loans(seed.NewRand(42), asOf)[13:] {
		if l.Returned != nil {
			assert.False(t, l.Returned.After(asOf), "loan %d returned on %s", l.ID, seed.DateValue(*l.Returned))
		}
	}
}

func TestStatementsNeedDatabase(t *testing.T) {
	stmts, err := schema.Statements(schema.MySQL, "BIB", library.Tables())
	require.NoError(t, err)
	assert.Equal(t, "USE `BIB`", stmts[1])
	assert.Contains(t, stmts[len(stmts)-1], "`Data_Devolucao` DATE NULL")

	_, err = schema.Statements(schema.MySQL, "", library.Tables())
	assert.EqualError(t, err, "database must be non-empty")
}

func TestSeedSQLite(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ds := library.Build(seed.NewRand(library.Domain.Seed), farFuture)

	_, err := seed.NewRunner(db, schema.SQLite, nil).Run(context.Background(), ds, seed.Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, testhelpers.CountRows(t, db, "autores"))
	assert.Equal(t, 10, testhelpers.CountRows(t, db, "livros"))
	assert.Equal(t, 5, testhelpers.CountRows(t, db, "leitores"))
	assert.Equal(t, 25, testhelpers.CountRows(t, db, "emprestimos"))

	var open int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM emprestimos WHERE Data_Devolucao IS NULL`).Scan(&open))
	assert.GreaterOrEqual(t, open, 3)
}
