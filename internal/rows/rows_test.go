package rows

import (
	"math"
	"testing"
	"time"
)

func TestCanonicalHeader(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"N°ISOMÉTRICO", "n_isometrico"},
		{"REV. ISO", "rev_iso"},
		{"N° LÍNEA", "n_linea"},
		{"SUB-ÁREA", "sub_area"},
		{"FECHA DE ENVIO", "fecha_de_envio"},
		{"iso_number", "iso_number"},
		{"  Spool Number ", "spool_number"},
	}
	for _, tt := range tests {
		if got := canonicalHeader(tt.in); got != tt.want {
			t.Errorf("canonicalHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAnnouncement_SpanishHeaders(t *testing.T) {
	raw := Loose{
		"N°ISOMÉTRICO":    "ISO-100",
		"N° LÍNEA":        "L-2001",
		"REV. ISO":        2.0,
		"ÁREA":            "A1",
		"SUB-ÁREA":        "A1-3",
		"TIPO LÍNEA":      "PROCESO",
		"ARCHIVO":         "CLI-ISO-100",
		"REV. ARCHIVO":    "B",
		"TML":             "TML-9",
		"N° TML":          17,
		"FECHA":           45000.0,
		"FORMATO PDF":     1,
		"FORMATO IDF":     "0",
		"ESTADO SPOOLING": "EN PROCESO",
		"FECHA SPOOLING":  "15/03/2024",
		"FECHA DE ENVIO":  "2024-03-20",
		"TOTAL":           40,
		"EJECUTADO":       "12",
		"FALTANTES":       28.0,
		"COMENTARIO":      " urgent ",
		"IGNORED COLUMN":  "x",
	}

	row := NormalizeAnnouncement(raw)

	if row.IsoNumber != "ISO-100" {
		t.Errorf("IsoNumber = %q", row.IsoNumber)
	}
	if row.RevisionNumber != "2" {
		t.Errorf("RevisionNumber = %q, want 2", row.RevisionNumber)
	}
	if row.LineNumber != "L-2001" || row.Area != "A1" || row.SubArea != "A1-3" || row.LineType != "PROCESO" {
		t.Errorf("metadata = %+v", row)
	}
	if row.ClientFileCode != "CLI-ISO-100" || row.ClientRevisionCode != "B" {
		t.Errorf("client codes = %q %q", row.ClientFileCode, row.ClientRevisionCode)
	}
	if row.TransmittalCode != "TML-9" || row.TransmittalNumber != "17" {
		t.Errorf("transmittal = %q %q", row.TransmittalCode, row.TransmittalNumber)
	}
	wantTx := time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC)
	if row.TransmittalDate == nil || !row.TransmittalDate.Equal(wantTx) {
		t.Errorf("TransmittalDate = %v, want %v", row.TransmittalDate, wantTx)
	}
	if !row.HasPDF || row.HasIDF {
		t.Errorf("HasPDF/HasIDF = %v/%v, want true/false", row.HasPDF, row.HasIDF)
	}
	if row.SpoolingStatus != "EN PROCESO" {
		t.Errorf("SpoolingStatus = %q", row.SpoolingStatus)
	}
	if row.SpoolingDate == nil || row.SpoolingDate.Day() != 15 || row.SpoolingDate.Month() != time.March {
		t.Errorf("SpoolingDate = %v", row.SpoolingDate)
	}
	if row.SpoolingSentDate == nil || row.SpoolingSentDate.Day() != 20 {
		t.Errorf("SpoolingSentDate = %v", row.SpoolingSentDate)
	}
	if row.TotalJointsCount != 40 || row.ExecutedJointsCount != 12 || row.PendingJointsCount != 28 {
		t.Errorf("counts = %d/%d/%d", row.TotalJointsCount, row.ExecutedJointsCount, row.PendingJointsCount)
	}
	if row.Comment != "urgent" {
		t.Errorf("Comment = %q", row.Comment)
	}
}

func TestNormalizeAnnouncement_Defaults(t *testing.T) {
	row := NormalizeAnnouncement(Loose{"iso_number": "ISO-1"})
	if row.RevisionNumber != "0" {
		t.Errorf("RevisionNumber = %q, want 0", row.RevisionNumber)
	}
	if row.TransmittalDate != nil || row.HasPDF {
		t.Errorf("unexpected values: %+v", row)
	}

	empty := NormalizeAnnouncement(Loose{"REV. ISO": "1"})
	if empty.IsoNumber != "" {
		t.Errorf("IsoNumber = %q, want empty", empty.IsoNumber)
	}
}

func TestNormalizeAnnouncements_PreservesOrder(t *testing.T) {
	got := NormalizeAnnouncements([]Loose{{"iso_number": "B"}, {"iso_number": "A"}})
	if len(got) != 2 || got[0].IsoNumber != "B" || got[1].IsoNumber != "A" {
		t.Errorf("NormalizeAnnouncements = %+v", got)
	}
}

func TestExcelDate(t *testing.T) {
	day := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	tests := []struct {
		name string
		in   any
		want *time.Time
	}{
		{"nil", nil, nil},
		{"zero", 0, nil},
		{"empty string", "", nil},
		{"serial", 45000, day(2023, time.March, 15)},
		{"serial float", 45000.75, day(2023, time.March, 15)},
		{"serial string", "45000", day(2023, time.March, 15)},
		{"serial out of range", 200000, nil},
		{"nan string", "NaN", nil},
		{"nan float", math.NaN(), nil},
		{"iso", "2024-01-31", day(2024, time.January, 31)},
		{"rfc3339", "2024-01-31T10:00:00Z", day(2024, time.January, 31)},
		{"dd/mm/yyyy", "05/02/2024", day(2024, time.February, 5)},
		{"year out of range", "1850-01-01", nil},
		{"garbage", "soon", nil},
		{"time value", time.Date(2022, 6, 1, 13, 0, 0, 0, time.UTC), day(2022, time.June, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExcelDate(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ExcelDate(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("ExcelDate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseNPS(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{`6"`, 6, true},
		{"6", 6, true},
		{8, 8, true},
		{2.5, 2.5, true},
		{"3/4", 0.75, true},
		{`1-1/2"`, 1.5, true},
		{"1 1/2", 1.5, true},
		{"2in", 2, true},
		{"", 0, false},
		{nil, 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-inf", 0, false},
		{"inf/1", 0, false},
		{math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		got := ParseNPS(tt.in)
		if (got != nil) != tt.ok {
			t.Errorf("ParseNPS(%v) = %v, want ok=%v", tt.in, got, tt.ok)
			continue
		}
		if got != nil && *got != tt.want {
			t.Errorf("ParseNPS(%v) = %v, want %v", tt.in, *got, tt.want)
		}
	}
}

func TestNormalizeWeldBoltMTO(t *testing.T) {
	w := NormalizeWeld(Loose{
		"spool_number": "SP-01", "weld_number": "W-1", "weld_type": "BW",
		"nps": `6"`, "sch": "40", "thickness": "7,11", "material": "A106", "destination": "CAMPO", "sheet": 1,
	})
	if w.SpoolNumber != "SP-01" || w.WeldNumber != "W-1" || w.WeldType != "BW" || w.Schedule != "40" {
		t.Errorf("weld = %+v", w)
	}
	if w.NPS == nil || *w.NPS != 6 {
		t.Errorf("weld NPS = %v", w.NPS)
	}
	if w.Thickness == nil || *w.Thickness != 7.11 {
		t.Errorf("weld Thickness = %v", w.Thickness)
	}
	if w.Destination != "CAMPO" || w.Sheet != "1" {
		t.Errorf("weld destination/sheet = %q/%q", w.Destination, w.Sheet)
	}

	b := NormalizeBolt(Loose{"flanged_joint_number": "F-1", "nps": 4, "rating": "150#", "bolt_size": "5/8", "sheet": "2"})
	if b.FlangedJointNumber != "F-1" || b.Rating != "150#" || b.BoltSize != "5/8" || b.Sheet != "2" {
		t.Errorf("bolt = %+v", b)
	}

	m := NormalizeMTO(Loose{"SPOOL NUMBER": "SP-01", "ITEM CODE": "P-6-40", "QTY": "2.5", "QTY UNIT": "M", "PIPING CLASS": "A1A", "FAB": "TALLER"})
	if m.SpoolNumber != "SP-01" || m.ItemCode != "P-6-40" || m.Qty != 2.5 || m.QtyUnit != "M" || m.PipingClass != "A1A" || m.Fab != "TALLER" {
		t.Errorf("mto = %+v", m)
	}
}

func TestDecode(t *testing.T) {
	yamlDoc := []byte(`
- N°ISOMÉTRICO: ISO-1
  REV. ISO: 1
- iso_number: ISO-2
  revision_number: "A"
`)
	raws, err := Decode(yamlDoc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := NormalizeAnnouncements(raws)
	if len(got) != 2 || got[0].IsoNumber != "ISO-1" || got[0].RevisionNumber != "1" || got[1].RevisionNumber != "A" {
		t.Errorf("rows = %+v", got)
	}

	jsonDoc := []byte(`[{"iso_number":"ISO-3","revision_number":2}]`)
	raws, err = Decode(jsonDoc)
	if err != nil {
		t.Fatalf("Decode JSON: %v", err)
	}
	if row := NormalizeAnnouncement(raws[0]); row.RevisionNumber != "2" {
		t.Errorf("RevisionNumber = %q, want 2", row.RevisionNumber)
	}

	if _, err := Decode([]byte("{not: [a list")); err == nil {
		t.Error("expected error for malformed input")
	}
}

func TestDecodeDetail(t *testing.T) {
	doc := []byte(`
bolted_joints:
  - flanged_joint_number: F-1
    nps: 4"
spools_welds:
  - spool_number: SP-01
    weld_number: W-1
  - spool_number: SP-01
    weld_number: W-2
material_take_off:
  - spool_number: SP-01
    item_code: P-6
    qty: 3
`)
	d, err := DecodeDetail(doc)
	if err != nil {
		t.Fatalf("DecodeDetail: %v", err)
	}
	if len(d.Bolts) != 1 || len(d.Welds) != 2 || len(d.MTO) != 1 {
		t.Fatalf("detail sizes = %d/%d/%d", len(d.Bolts), len(d.Welds), len(d.MTO))
	}
	if d.Bolts[0].NPS == nil || *d.Bolts[0].NPS != 4 {
		t.Errorf("bolt NPS = %v", d.Bolts[0].NPS)
	}
	if d.MTO[0].Qty != 3 {
		t.Errorf("mto qty = %v", d.MTO[0].Qty)
	}
}

func TestFields_DuplicateHeadersFirstNonEmpty(t *testing.T) {
	f := fields(Loose{"ISO_NUMBER": "", "iso number": "ISO-7"}, announcementAliases)
	if str(f["iso_number"]) != "ISO-7" {
		t.Errorf("iso_number = %v, want ISO-7", f["iso_number"])
	}
}

func TestNumericCells_RejectNonFinite(t *testing.T) {
	w := NormalizeWeld(Loose{"weld_number": "W-1", "thickness": "NaN"})
	if w.Thickness != nil {
		t.Errorf("Thickness = %v, want nil", *w.Thickness)
	}
	m := NormalizeMTO(Loose{"item_code": "PIPE-6", "weight": "+Inf", "qty": "NaN"})
	if m.Weight != nil {
		t.Errorf("Weight = %v, want nil", *m.Weight)
	}
	if m.Qty != 0 {
		t.Errorf("Qty = %v, want 0", m.Qty)
	}
}

func TestInteger(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{12, 12},
		{"7", 7},
		{3.9, 3},
		{"1e30", 0},
		{-1e30, 0},
		{math.Inf(-1), 0},
		{"NaN", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := integer(tt.in); got != tt.want {
			t.Errorf("integer(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
