// Package export renders every apiary record as a JSON document or a
// sectioned CSV file.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

// Document is the JSON export layout.
type Document struct {
	ExportDate string        `json:"exportDate"`
	Apiaries   []apiaryEntry `json:"apiaries"`
}

type apiaryEntry struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Latitude  *float64    `json:"latitude"`
	Longitude *float64    `json:"longitude"`
	Notes     string      `json:"notes"`
	Hives     []hiveEntry `json:"hives"`
}

type hiveEntry struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	QRString    string            `json:"qrString"`
	Type        string            `json:"type"`
	Notes       string            `json:"notes"`
	Inspections []inspectionEntry `json:"inspections"`
	Treatments  []treatmentEntry  `json:"treatments"`
	Harvests    []harvestEntry    `json:"harvests"`
}

type inspectionEntry struct {
	ID               string             `json:"id"`
	Date             string             `json:"date"`
	QueenSeen        *bool              `json:"queenSeen"`
	EggsPresent      *bool              `json:"eggsPresent"`
	BroodPatternGood *bool              `json:"broodPatternGood"`
	QueenCells       *bool              `json:"queenCells"`
	VarroaLevel      domain.VarroaLevel `json:"varroaLevel"`
	Photos           []string           `json:"photos"`
	Transcript       string             `json:"transcript"`
	Tags             []string           `json:"tags"`
}

type treatmentEntry struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Product       string  `json:"product"`
	Dosage        string  `json:"dosage"`
	Notes         string  `json:"notes"`
	NextCheckDate *string `json:"nextCheckDate"`
}

type harvestEntry struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	WeightKg float64 `json:"weightKg"`
	Notes    string  `json:"notes"`
}

// hiveRecords is one hive with everything recorded on it.
type hiveRecords struct {
	hive        domain.Hive
	inspections []domain.Inspection
	treatments  []domain.Treatment
	harvests    []domain.Harvest
}

type apiaryRecords struct {
	apiary domain.Apiary
	hives  []hiveRecords
}

// JSON renders the full record tree, apiaries sorted by name.
func JSON(ctx context.Context, source ports.RecordReader, now time.Time) ([]byte, error) {
	tree, err := collect(ctx, source)
	if err != nil {
		return nil, err
	}

	doc := Document{ExportDate: timestamp(now), Apiaries: make([]apiaryEntry, 0, len(tree))}
	for _, a := range tree {
		entry := apiaryEntry{
			ID:        a.apiary.ID.String(),
			Name:      a.apiary.Name,
			Latitude:  a.apiary.Latitude,
			Longitude: a.apiary.Longitude,
			Notes:     a.apiary.Notes,
			Hives:     make([]hiveEntry, 0, len(a.hives)),
		}
		for _, h := range a.hives {
			entry.Hives = append(entry.Hives, hiveDocument(h))
		}
		doc.Apiaries = append(doc.Apiaries, entry)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return out, nil
}

func hiveDocument(h hiveRecords) hiveEntry {
	entry := hiveEntry{
		ID:          h.hive.ID.String(),
		Name:        h.hive.Name,
		QRString:    h.hive.QRString,
		Type:        h.hive.Type,
		Notes:       h.hive.Notes,
		Inspections: make([]inspectionEntry, 0, len(h.inspections)),
		Treatments:  make([]treatmentEntry, 0, len(h.treatments)),
		Harvests:    make([]harvestEntry, 0, len(h.harvests)),
	}
	for _, in := range h.inspections {
		entry.Inspections = append(entry.Inspections, inspectionEntry{
			ID:               in.ID.String(),
			Date:             timestamp(in.Date),
			QueenSeen:        in.Flags.QueenSeen,
			EggsPresent:      in.Flags.EggsPresent,
			BroodPatternGood: in.Flags.BroodPatternGood,
			QueenCells:       in.Flags.QueenCells,
			VarroaLevel:      in.Flags.VarroaLevel,
			Photos:           nonNil(in.Photos),
			Transcript:       in.Transcript,
			Tags:             nonNil(in.Tags),
		})
	}
	for _, t := range h.treatments {
		var next *string
		if t.NextCheckDate != nil {
			formatted := timestamp(*t.NextCheckDate)
			next = &formatted
		}
		entry.Treatments = append(entry.Treatments, treatmentEntry{
			ID:            t.ID.String(),
			Date:          timestamp(t.Date),
			Product:       t.Product,
			Dosage:        t.Dosage,
			Notes:         t.Notes,
			NextCheckDate: next,
		})
	}
	for _, hv := range h.harvests {
		entry.Harvests = append(entry.Harvests, harvestEntry{
			ID:       hv.ID.String(),
			Date:     timestamp(hv.Date),
			WeightKg: hv.WeightKg,
			Notes:    hv.Notes,
		})
	}
	return entry
}

var (
	inspectionHeader = []string{"Hive ID", "Hive Name", "Date", "Queen Seen", "Eggs Present", "Brood Pattern Good", "Queen Cells", "Varroa Level", "Transcript", "Tags"}
	treatmentHeader  = []string{"Hive ID", "Hive Name", "Date", "Product", "Dosage", "Notes", "Next Check Date"}
	harvestHeader    = []string{"Hive ID", "Hive Name", "Date", "Weight (kg)", "Notes"}
)

// CSV renders inspections, treatments and harvests as three sections under an
// export date line.
func CSV(ctx context.Context, source ports.RecordReader, now time.Time) ([]byte, error) {
	tree, err := collect(ctx, source)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	section := func(title string, header []string, rows func() [][]string) {
		w.Flush()
		buf.WriteString("\n=== " + title + " ===\n")
		_ = w.Write(header)
		_ = w.WriteAll(rows())
	}

	_ = w.Write([]string{"Export Date", timestamp(now)})
	section("INSPECTIONS", inspectionHeader, func() [][]string {
		var rows [][]string
		eachHive(tree, func(h hiveRecords) {
			for _, in := range h.inspections {
				rows = append(rows, []string{
					h.hive.ID.String(),
					h.hive.Name,
					timestamp(in.Date),
					optionalBool(in.Flags.QueenSeen),
					optionalBool(in.Flags.EggsPresent),
					optionalBool(in.Flags.BroodPatternGood),
					optionalBool(in.Flags.QueenCells),
					in.Flags.VarroaLevel.String(),
					in.Transcript,
					strings.Join(in.Tags, "; "),
				})
			}
		})
		return rows
	})
	section("TREATMENTS", treatmentHeader, func() [][]string {
		var rows [][]string
		eachHive(tree, func(h hiveRecords) {
			for _, t := range h.treatments {
				next := ""
				if t.NextCheckDate != nil {
					next = timestamp(*t.NextCheckDate)
				}
				rows = append(rows, []string{h.hive.ID.String(), h.hive.Name, timestamp(t.Date), t.Product, t.Dosage, t.Notes, next})
			}
		})
		return rows
	})
	section("HARVESTS", harvestHeader, func() [][]string {
		var rows [][]string
		eachHive(tree, func(h hiveRecords) {
			for _, hv := range h.harvests {
				rows = append(rows, []string{h.hive.ID.String(), h.hive.Name, timestamp(hv.Date), strconv.FormatFloat(hv.WeightKg, 'f', -1, 64), hv.Notes})
			}
		})
		return rows
	})

	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return buf.Bytes(), nil
}

func collect(ctx context.Context, source ports.RecordReader) ([]apiaryRecords, error) {
	apiaries, err := source.ListApiaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list apiaries: %w", err)
	}

	tree := make([]apiaryRecords, 0, len(apiaries))
	for _, apiary := range apiaries {
		hives, err := source.ListHives(ctx, apiary.ID)
		if err != nil {
			return nil, fmt.Errorf("list hives of %s: %w", apiary.ID, err)
		}
		node := apiaryRecords{apiary: apiary}
		for _, hive := range hives {
			records := hiveRecords{hive: hive}
			if records.inspections, err = source.ListInspections(ctx, hive.ID); err != nil {
				return nil, fmt.Errorf("list inspections of %s: %w", hive.ID, err)
			}
			if records.treatments, err = source.ListTreatments(ctx, hive.ID); err != nil {
				return nil, fmt.Errorf("list treatments of %s: %w", hive.ID, err)
			}
			if records.harvests, err = source.ListHarvests(ctx, hive.ID); err != nil {
				return nil, fmt.Errorf("list harvests of %s: %w", hive.ID, err)
			}
			node.hives = append(node.hives, records)
		}
		tree = append(tree, node)
	}
	return tree, nil
}

func eachHive(tree []apiaryRecords, fn func(hiveRecords)) {
	for _, a := range tree {
		for _, h := range a.hives {
			fn(h)
		}
	}
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optionalBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
