// Package clinic builds the clinic sample database: doctors, patients and
// appointments.
package clinic

import (
	"math/rand/v2"
	"time"

	"github.com/johnwards/bdexemplos/internal/schema"
	"github.com/johnwards/bdexemplos/internal/seed"
)

// AppointmentCount is the number of appointments generated per run.
const AppointmentCount = 50

var notes = []string{"", "Controlo anual.", "Seguimento.", "Queixas de dores."}

// Doctor is a row of medicos.
type Doctor struct {
	ID        int
	Name      string
	Specialty string
}

// Patient is a row of pacientes.
type Patient struct {
	ID    int
	Name  string
	Birth time.Time
	NIF   string
}

// Appointment is a row of consultas. Notes may be empty.
type Appointment struct {
	ID        int
	DoctorID  int
	PatientID int
	At        time.Time
	Notes     string
}

// Doctors returns the fixed doctors.
func Doctors() []Doctor {
	return []Doctor{
		{1, "Dra. Ana Martins", "Clínica Geral"},
		{2, "Dr. Bruno Sousa", "Cardiologia"},
		{3, "Dra. Carla Reis", "Pediatria"},
		{4, "Dr. Duarte Lopes", "Ortopedia"},
		{5, "Dra. Eduarda Ferreira", "Dermatologia"},
	}
}

// Patients returns the fixed patients.
func Patients() []Patient {
	return []Patient{
		{1, "João Silva", seed.Date(1985, time.April, 12), "123456789"},
		{2, "Maria Santos", seed.Date(1990, time.August, 3), "234567890"},
		{3, "Pedro Oliveira", seed.Date(1978, time.January, 25), "345678901"},
		{4, "Inês Costa", seed.Date(2001, time.November, 7), "456789012"},
		{5, "Ricardo Almeida", seed.Date(1965, time.June, 18), "567890123"},
		{6, "Sofia Pereira", seed.Date(1995, time.February, 28), "678901234"},
		{7, "Tiago Rodrigues", seed.Date(1982, time.September, 14), "789012345"},
		{8, "Beatriz Nunes", seed.Date(2010, time.May, 30), "890123456"},
	}
}

// Appointments spreads AppointmentCount appointments over the 61 days from
// 2025-02-01, between 09:00 and 17:45 on quarter hours.
func Appointments(r *rand.Rand) []Appointment {
	base := time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)
	appts := make([]Appointment, 0, AppointmentCount)
	for i := range AppointmentCount {
		doctor := seed.IntBetween(r, 1, len(Doctors()))
		patient := seed.IntBetween(r, 1, len(Patients()))
		at := base.AddDate(0, 0, seed.IntBetween(r, 0, 60)).
			Add(time.Duration(seed.IntBetween(r, 0, 8)) * time.Hour).
			Add(time.Duration(seed.Choice(r, []int{0, 15, 30, 45})) * time.Minute)
		appts = append(appts, Appointment{
			ID:        i + 1,
			DoctorID:  doctor,
			PatientID: patient,
			At:        at,
			Notes:     seed.Choice(r, notes),
		})
	}
	return appts
}

// Tables returns the clinic schema.
func Tables() []schema.Table {
	return []schema.Table{
		{
			Name: "medicos",
			Columns: []schema.Column{
				{Name: "ID_Medico", Type: "INT"},
				{Name: "Nome", Type: "VARCHAR(120)"},
				{Name: "Especialidade", Type: "VARCHAR(80)"},
			},
			PrimaryKey: []string{"ID_Medico"},
		},
		{
			Name: "pacientes",
			Columns: []schema.Column{
				{Name: "ID_Paciente", Type: "INT"},
				{Name: "Nome", Type: "VARCHAR(120)"},
				{Name: "Data_Nascimento", Type: "DATE"},
				{Name: "NIF", Type: "VARCHAR(20)"},
			},
			PrimaryKey: []string{"ID_Paciente"},
			Indexes:    []schema.Index{{Name: "uq_pacientes_nif", Columns: []string{"NIF"}, Unique: true}},
		},
		{
			Name: "consultas",
			Columns: []schema.Column{
				{Name: "ID_Consulta", Type: "INT"},
				{Name: "ID_Medico", Type: "INT"},
				{Name: "ID_Paciente", Type: "INT"},
				{Name: "Data_Consulta", Type: "DATETIME"},
				{Name: "Notas", Type: "VARCHAR(500)", Nullable: true},
			},
			PrimaryKey: []string{"ID_Consulta"},
			Indexes: []schema.Index{
				{Name: "idx_consultas_medico", Columns: []string{"ID_Medico"}},
				{Name: "idx_consultas_paciente", Columns: []string{"ID_Paciente"}},
				{Name: "idx_consultas_data", Columns: []string{"Data_Consulta"}},
			},
			ForeignKeys: []schema.ForeignKey{
				{
					Name: "fk_consultas_medico", Columns: []string{"ID_Medico"},
					RefTable: "medicos", RefColumns: []string{"ID_Medico"},
				},
				{
					Name: "fk_consultas_paciente", Columns: []string{"ID_Paciente"},
					RefTable: "pacientes", RefColumns: []string{"ID_Paciente"},
				},
			},
		},
	}
}

// Build returns the clinic dataset.
func Build(r *rand.Rand) (*seed.Dataset, error) {
	doctors := seed.Batch{Table: "medicos", Columns: []string{"ID_Medico", "Nome", "Especialidade"}}
	for _, d := range Doctors() {
		doctors.Rows = append(doctors.Rows, []any{d.ID, d.Name, d.Specialty})
	}
	patients := seed.Batch{Table: "pacientes", Columns: []string{"ID_Paciente", "Nome", "Data_Nascimento", "NIF"}}
	for _, p := range Patients() {
		patients.Rows = append(patients.Rows, []any{p.ID, p.Name, seed.DateValue(p.Birth), p.NIF})
	}
	appts := seed.Batch{Table: "consultas", Columns: []string{"ID_Consulta", "ID_Medico", "ID_Paciente", "Data_Consulta", "Notas"}}
	for _, a := range Appointments(r) {
		appts.Rows = append(appts.Rows, []any{a.ID, a.DoctorID, a.PatientID, seed.DateTimeValue(a.At), a.Notes})
	}

	return &seed.Dataset{
		Name:    "clinica",
		Tables:  Tables(),
		Batches: []seed.Batch{doctors, patients, appts},
	}, nil
}

// Domain registers the clinic dataset.
var Domain = seed.Domain{
	Name:    "clinica",
	Aliases: []string{"clinic"},
	Short:   "Seed the clinic database (doctors, patients, appointments)",
	Seed:    42,
	Tables:  Tables,
	Build:   Build,
}
