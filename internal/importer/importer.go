// Package importer loads members in bulk from the club's legacy CSV export.
// Every row goes through the member service, so imported members get the
// same code handling, condition linking and initial ledger entry as members
// created any other way.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clubcrm/clubcrm/internal/domain/member"
	"github.com/clubcrm/clubcrm/internal/domain/person"
	"github.com/clubcrm/clubcrm/internal/domain/registry"
)

// The export uses day-first dates.
const dateLayout = "02/01/2006"

// requiredColumns are the headers the export always carries. Contact blocks
// 3 to 5 are optional per row but their columns must exist.
var requiredColumns = []string{
	"codigo", "apellido1", "apellido2", "nombre", "curp", "fecha_inscripcion", "nacimiento",
	"genero", "telefono", "correo", "producto", "descubrimiento", "descubrimiento_detalles",
	"condicion_medica", "condicion_medica_detalles", "estatus",
	"contacto_principal_nombre", "contacto_principal_relacion", "contacto_principal_telefono",
	"contacto_emergencia_nombre", "contacto_emergencia_relacion", "contacto_emergencia_telefono",
	"contacto_3_nombre", "contacto_3_relacion", "contacto_3_telefono",
	"contacto_4_nombre", "contacto_4_relacion", "contacto_4_telefono",
	"contacto_5_nombre", "contacto_5_telefono",
}

// Registries is the subset of registry operations the importer needs.
// *registry.Service satisfies it.
type Registries interface {
	GetOrCreateEntry(ctx context.Context, kind registry.Kind, name string) (*registry.Entry, error)
}

// Members is the subset of member operations the importer needs.
// *member.Service satisfies it.
type Members interface {
	GetByCode(ctx context.Context, code string) (*member.Member, error)
	Create(ctx context.Context, m *member.Member, contacts []*member.Contact, changedBy *string) error
	Update(ctx context.Context, m *member.Member) error
	ReplaceContacts(ctx context.Context, memberID uuid.UUID, contacts []*member.Contact) error
}

// Result sums up one import run.
type Result struct {
	Created int
	Updated int
	Errors  int
}

type Importer struct {
	registries Registries
	members    Members
	log        zerolog.Logger
}

func New(registries Registries, members Members, log zerolog.Logger) *Importer {
	return &Importer{registries: registries, members: members, log: log}
}

// ImportFile reads the CSV at path and upserts one member per row, keyed by
// member code. A bad row is counted and logged; the run continues.
func (i *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return i.Import(ctx, f)
}

func (i *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return Result{}, err
	}

	var result Result
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors++
			i.log.Error().Err(err).Int("line", line).Msg("malformed row")
			continue
		}

		row := rowReader{cols: cols, record: record}
		created, err := i.importRow(ctx, row)
		if err != nil {
			result.Errors++
			i.log.Error().Err(err).Int("line", line).Str("codigo", row.get("codigo")).Msg("row failed")
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	i.log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("errors", result.Errors).
		Msg("member import finished")
	return result, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[strings.TrimSpace(name)] = idx
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

type rowReader struct {
	cols   map[string]int
	record []string
}

func (r rowReader) get(name string) string {
	idx, ok := r.cols[name]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func (r rowReader) getPtr(name string) *string {
	if v := r.get(name); v != "" {
		return &v
	}
	return nil
}

func (i *Importer) importRow(ctx context.Context, row rowReader) (created bool, err error) {
	code := row.get("codigo")
	if code == "" {
		return false, fmt.Errorf("codigo is empty")
	}

	birth, err := time.Parse(dateLayout, row.get("nacimiento"))
	if err != nil {
		return false, fmt.Errorf("nacimiento: %w", err)
	}
	enrollment, err := time.Parse(dateLayout, row.get("fecha_inscripcion"))
	if err != nil {
		return false, fmt.Errorf("fecha_inscripcion: %w", err)
	}

	source, err := i.registries.GetOrCreateEntry(ctx, registry.KindDiscoverySource, row.get("descubrimiento"))
	if err != nil {
		return false, fmt.Errorf("discovery source: %w", err)
	}
	condition, err := i.registries.GetOrCreateEntry(ctx, registry.KindMedicalCondition, row.get("condicion_medica"))
	if err != nil {
		return false, fmt.Errorf("medical condition: %w", err)
	}

	// The export splits the name into given name and two surnames.
	name := strings.Join(nonEmpty(row.get("nombre"), row.get("apellido1"), row.get("apellido2")), " ")

	m := &member.Member{
		MemberCode: code,
		Person: person.Person{
			Name:                    name,
			CURP:                    row.get("curp"),
			BirthDate:               birth,
			Gender:                  row.get("genero"),
			PhoneNumber:             row.get("telefono"),
			Email:                   row.get("correo"),
			DiscoverySourceID:       &source.ID,
			DiscoveryDetails:        row.getPtr("descubrimiento_detalles"),
			MedicalConditionDetails: row.getPtr("condicion_medica_detalles"),
		},
		EnrollmentDate:      enrollment,
		MedicalConditionIDs: []uuid.UUID{condition.ID},
	}

	contacts, err := i.rowContacts(ctx, row)
	if err != nil {
		return false, err
	}

	existing, err := i.members.GetByCode(ctx, code)
	switch {
	case err == member.ErrNotFound:
		if err := i.members.Create(ctx, m, contacts, nil); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	}

	m.ID = existing.ID
	if err := i.members.Update(ctx, m); err != nil {
		return false, err
	}
	if err := i.members.ReplaceContacts(ctx, m.ID, contacts); err != nil {
		return false, err
	}
	return false, nil
}

func (i *Importer) rowContacts(ctx context.Context, row rowReader) ([]*member.Contact, error) {
	blocks := []struct {
		prefix      string
		isPrimary   bool
		isEmergency bool
	}{
		{"contacto_principal", true, false},
		{"contacto_emergencia", false, true},
		{"contacto_3", false, false},
		{"contacto_4", false, false},
		{"contacto_5", false, false},
	}

	var contacts []*member.Contact
	for _, b := range blocks {
		name := row.get(b.prefix + "_nombre")
		phone := row.get(b.prefix + "_telefono")
		if name == "" || phone == "" {
			continue
		}
		c := &member.Contact{
			Name:        name,
			PhoneNumber: phone,
			IsPrimary:   b.isPrimary,
			IsEmergency: b.isEmergency,
		}
		if relName := row.get(b.prefix + "_relacion"); relName != "" {
			rel, err := i.registries.GetOrCreateEntry(ctx, registry.KindContactRelation, relName)
			if err != nil {
				return nil, fmt.Errorf("contact relation %q: %w", relName, err)
			}
			c.RelationID = &rel.ID
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
