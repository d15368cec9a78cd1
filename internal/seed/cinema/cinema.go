// Package cinema builds the cinema sample database: films, rooms, sessions
// and tickets.
package cinema

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johnwards/bdexemplos/internal/schema"
	"github.com/johnwards/bdexemplos/internal/seed"
)

// Days is the number of consecutive days with sessions, starting on
// 2025-03-01.
const Days = 14

var ticketPrices = []decimal.Decimal{
	decimal.RequireFromString("5.00"),
	decimal.RequireFromString("7.50"),
	decimal.RequireFromString("10.00"),
}

// Film is a row of filmes.
type Film struct {
	ID       int
	Title    string
	Duration int
	Year     int
}

// Room is a row of salas.
type Room struct {
	ID       int
	Name     string
	Capacity int
}

// Session is a row of sessoes: one film in one room at Start.
type Session struct {
	ID     int
	FilmID int
	RoomID int
	Start  time.Time
}

// Ticket is a row of bilhetes.
type Ticket struct {
	ID        int
	SessionID int
	Price     decimal.Decimal
}

// Films returns the fixed films.
func Films() []Film {
	return []Film{
		{1, "O Pátio das Cantigas", 95, 1942},
		{2, "Aniki-Bóbó", 71, 1942},
		{3, "A Canção de Lisboa", 95, 1933},
		{4, "O Leão da Estrela", 88, 1947},
		{5, "O Costa do Castelo", 98, 1943},
		{6, "Fado, História d'uma Cantadeira", 95, 1948},
	}
}

// Rooms returns the fixed rooms.
func Rooms() []Room {
	return []Room{
		{1, "Sala 1", 120},
		{2, "Sala 2", 80},
		{3, "Sala 3", 50},
	}
}

// Sessions schedules a subset of film and room pairs on each day: a pair
// plays on day d when film+room+d is a multiple of three, which yields six
// sessions a day. Start times fall on the hour between 10:00 and 22:00.
func Sessions(r *rand.Rand) []Session {
	base := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	var sessions []Session
	for day := range Days {
		for _, film := range Films() {
			for _, room := range Rooms() {
				if (film.ID+room.ID+day)%3 != 0 {
					continue
				}
				start := base.AddDate(0, 0, day).Add(time.Duration(seed.IntBetween(r, 0, 12)) * time.Hour)
				sessions = append(sessions, Session{ID: len(sessions) + 1, FilmID: film.ID, RoomID: room.ID, Start: start})
			}
		}
	}
	return sessions
}

// Tickets sells between 1 and 20 tickets for each of sessions.
func Tickets(r *rand.Rand, sessions []Session) []Ticket {
	var tickets []Ticket
	for _, s := range sessions {
		for range seed.IntBetween(r, 1, 20) {
			tickets = append(tickets, Ticket{ID: len(tickets) + 1, SessionID: s.ID, Price: seed.Choice(r, ticketPrices)})
		}
	}
	return tickets
}

// Tables returns the cinema schema.
func Tables() []schema.Table {
	return []schema.Table{
		{
			Name: "filmes",
			Columns: []schema.Column{
				{Name: "ID_Filme", Type: "INT"},
				{Name: "Titulo", Type: "VARCHAR(200)"},
				{Name: "Duracao_Min", Type: "INT"},
				{Name: "Ano", Type: "SMALLINT"},
			},
			PrimaryKey: []string{"ID_Filme"},
		},
		{
			Name: "salas",
			Columns: []schema.Column{
				{Name: "ID_Sala", Type: "INT"},
				{Name: "Nome", Type: "VARCHAR(80)"},
				{Name: "Capacidade", Type: "INT"},
			},
			PrimaryKey: []string{"ID_Sala"},
		},
		{
			Name: "sessoes",
			Columns: []schema.Column{
				{Name: "ID_Sessao", Type: "INT"},
				{Name: "ID_Filme", Type: "INT"},
				{Name: "ID_Sala", Type: "INT"},
				{Name: "Data_Hora", Type: "DATETIME"},
			},
			PrimaryKey: []string{"ID_Sessao"},
			Indexes: []schema.Index{
				{Name: "idx_sessoes_filme", Columns: []string{"ID_Filme"}},
				{Name: "idx_sessoes_sala", Columns: []string{"ID_Sala"}},
				{Name: "idx_sessoes_data", Columns: []string{"Data_Hora"}},
			},
			ForeignKeys: []schema.ForeignKey{
				{
					Name: "fk_sessoes_filme", Columns: []string{"ID_Filme"},
					RefTable: "filmes", RefColumns: []string{"ID_Filme"},
				},
				{
					Name: "fk_sessoes_sala", Columns: []string{"ID_Sala"},
					RefTable: "salas", RefColumns: []string{"ID_Sala"},
				},
			},
		},
		{
			Name: "bilhetes",
			Columns: []schema.Column{
				{Name: "ID_Bilhete", Type: "INT"},
				{Name: "ID_Sessao", Type: "INT"},
				{Name: "Preco", Type: "DECIMAL(10,2)"},
			},
			PrimaryKey: []string{"ID_Bilhete"},
			Indexes:    []schema.Index{{Name: "idx_bilhetes_sessao", Columns: []string{"ID_Sessao"}}},
			ForeignKeys: []schema.ForeignKey{{
				Name: "fk_bilhetes_sessao", Columns: []string{"ID_Sessao"},
				RefTable: "sessoes", RefColumns: []string{"ID_Sessao"}, OnDelete: "CASCADE",
			}},
		},
	}
}

// Build returns the cinema dataset.
func Build(r *rand.Rand) (*seed.Dataset, error) {
	sessions := Sessions(r)
	tickets := Tickets(r, sessions)

	films := seed.Batch{Table: "filmes", Columns: []string{"ID_Filme", "Titulo", "Duracao_Min", "Ano"}}
	for _, f := range Films() {
		films.Rows = append(films.Rows, []any{f.ID, f.Title, f.Duration, f.Year})
	}
	rooms := seed.Batch{Table: "salas", Columns: []string{"ID_Sala", "Nome", "Capacidade"}}
	for _, rm := range Rooms() {
		rooms.Rows = append(rooms.Rows, []any{rm.ID, rm.Name, rm.Capacity})
	}
	sess := seed.Batch{Table: "sessoes", Columns: []string{"ID_Sessao", "ID_Filme", "ID_Sala", "Data_Hora"}}
	for _, s := range sessions {
		sess.Rows = append(sess.Rows, []any{s.ID, s.FilmID, s.RoomID, seed.DateTimeValue(s.Start)})
	}
	tix := seed.Batch{Table: "bilhetes", Columns: []string{"ID_Bilhete", "ID_Sessao", "Preco"}}
	for _, t := range tickets {
		tix.Rows = append(tix.Rows, []any{t.ID, t.SessionID, t.Price.StringFixed(2)})
	}

	return &seed.Dataset{
		Name:    "cinema",
		Tables:  Tables(),
		Batches: []seed.Batch{films, rooms, sess, tix},
	}, nil
}

// Domain registers the cinema dataset.
var Domain = seed.Domain{
	Name:   "cinema",
	Short:  "Seed the cinema database (films, rooms, sessions, tickets)",
	Seed:   42,
	Tables: Tables,
	Build:  Build,
}
