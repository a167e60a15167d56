// Package rows turns loosely shaped spreadsheet records into the typed rows
// consumed by the announcement and detail-import processors. Headers are
// matched case-, accent- and punctuation-insensitively, so both snake_case
// keys and the client's Spanish column titles are accepted.
package rows

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Loose is one raw spreadsheet record keyed by column header.
type Loose map[string]any

// AnnouncementRow is one client-declared revision of an isometric.
type AnnouncementRow struct {
	IsoNumber           string
	LineNumber          string
	RevisionNumber      string
	Area                string
	SubArea             string
	LineType            string
	ClientFileCode      string
	ClientRevisionCode  string
	TransmittalCode     string
	TransmittalNumber   string
	TransmittalDate     *time.Time
	HasPDF              bool
	HasIDF              bool
	SpoolingStatus      string
	SpoolingDate        *time.Time
	SpoolingSentDate    *time.Time
	TotalJointsCount    int
	ExecutedJointsCount int
	PendingJointsCount  int
	Comment             string
}

// WeldRow is one weld from the spool/weld sheet.
type WeldRow struct {
	SpoolNumber string
	WeldNumber  string
	WeldType    string
	NPS         *float64
	Schedule    string
	Thickness   *float64
	Material    string
	Destination string
	Sheet       string
}

// BoltRow is one flanged joint from the bolted-joint sheet.
type BoltRow struct {
	SpoolNumber        string
	FlangedJointNumber string
	NPS                *float64
	Rating             string
	BoltSize           string
	Material           string
	Sheet              string
}

// MTORow is one line of the material take-off.
type MTORow struct {
	SpoolNumber string
	Sheet       string
	PipingClass string
	Fab         string
	ItemCode    string
	Description string
	Qty         float64
	QtyUnit     string
	NPS         *float64
	Material    string
	Schedule    string
	Weight      *float64
}

// Detail holds the three sheets of one fabrication-detail import.
type Detail struct {
	Bolts []BoltRow
	Welds []WeldRow
	MTO   []MTORow
}

var announcementAliases = map[string]string{
	"iso_number":            "iso_number",
	"n_isometrico":          "iso_number",
	"isometrico":            "iso_number",
	"line_number":           "line_number",
	"n_linea":               "line_number",
	"revision_number":       "revision_number",
	"rev_iso":               "revision_number",
	"area":                  "area",
	"sub_area":              "sub_area",
	"line_type":             "line_type",
	"tipo_linea":            "line_type",
	"client_file_code":      "client_file_code",
	"archivo":               "client_file_code",
	"client_revision_code":  "client_revision_code",
	"rev_archivo":           "client_revision_code",
	"transmittal_code":      "transmittal_code",
	"tml":                   "transmittal_code",
	"transmittal_number":    "transmittal_number",
	"n_tml":                 "transmittal_number",
	"transmittal_date":      "transmittal_date",
	"fecha":                 "transmittal_date",
	"has_pdf":               "has_pdf",
	"formato_pdf":           "has_pdf",
	"has_idf":               "has_idf",
	"formato_idf":           "has_idf",
	"spooling_status":       "spooling_status",
	"estado_spooling":       "spooling_status",
	"spooling_date":         "spooling_date",
	"fecha_spooling":        "spooling_date",
	"spooling_sent_date":    "spooling_sent_date",
	"fecha_de_envio":        "spooling_sent_date",
	"total_joints_count":    "total_joints_count",
	"total":                 "total_joints_count",
	"executed_joints_count": "executed_joints_count",
	"ejecutado":             "executed_joints_count",
	"pending_joints_count":  "pending_joints_count",
	"faltantes":             "pending_joints_count",
	"comment":               "comment",
	"comentario":            "comment",
}

var weldAliases = map[string]string{
	"spool_number": "spool_number",
	"spool":        "spool_number",
	"weld_number":  "weld_number",
	"weld_no":      "weld_number",
	"n_soldadura":  "weld_number",
	"weld_type":    "weld_type",
	"tipo":         "weld_type",
	"nps":          "nps",
	"diametro":     "nps",
	"sch":          "sch",
	"schedule":     "sch",
	"cedula":       "sch",
	"thickness":    "thickness",
	"espesor":      "thickness",
	"material":     "material",
	"destination":  "destination",
	"destino":      "destination",
	"sheet":        "sheet",
	"hoja":         "sheet",
}

var boltAliases = map[string]string{
	"spool_number":         "spool_number",
	"spool":                "spool_number",
	"flanged_joint_number": "flanged_joint_number",
	"flanged_joint_no":     "flanged_joint_number",
	"n_junta":              "flanged_joint_number",
	"nps":                  "nps",
	"diametro":             "nps",
	"rating":               "rating",
	"bolt_size":            "bolt_size",
	"perno":                "bolt_size",
	"material":             "material",
	"sheet":                "sheet",
	"hoja":                 "sheet",
}

var mtoAliases = map[string]string{
	"spool_number": "spool_number",
	"spool":        "spool_number",
	"sheet":        "sheet",
	"hoja":         "sheet",
	"piping_class": "piping_class",
	"class":        "piping_class",
	"fab":          "fab",
	"fab_location": "fab",
	"item_code":    "item_code",
	"description":  "description",
	"descripcion":  "description",
	"qty":          "qty",
	"quantity":     "qty",
	"cantidad":     "qty",
	"qty_unit":     "qty_unit",
	"unit":         "qty_unit",
	"unidad":       "qty_unit",
	"nps":          "nps",
	"diametro":     "nps",
	"material":     "material",
	"sch":          "sch",
	"schedule":     "sch",
	"weight":       "weight",
	"peso":         "weight",
}

// NormalizeAnnouncement maps one raw record to an AnnouncementRow. A missing
// revision number becomes "0". Rows without an isometric number are returned
// as-is; rejecting them is the caller's decision.
func NormalizeAnnouncement(raw Loose) AnnouncementRow {
	f := fields(raw, announcementAliases)
	row := AnnouncementRow{
		IsoNumber:           str(f["iso_number"]),
		LineNumber:          str(f["line_number"]),
		RevisionNumber:      str(f["revision_number"]),
		Area:                str(f["area"]),
		SubArea:             str(f["sub_area"]),
		LineType:            str(f["line_type"]),
		ClientFileCode:      str(f["client_file_code"]),
		ClientRevisionCode:  str(f["client_revision_code"]),
		TransmittalCode:     str(f["transmittal_code"]),
		TransmittalNumber:   str(f["transmittal_number"]),
		TransmittalDate:     ExcelDate(f["transmittal_date"]),
		HasPDF:              flag(f["has_pdf"]),
		HasIDF:              flag(f["has_idf"]),
		SpoolingStatus:      str(f["spooling_status"]),
		SpoolingDate:        ExcelDate(f["spooling_date"]),
		SpoolingSentDate:    ExcelDate(f["spooling_sent_date"]),
		TotalJointsCount:    integer(f["total_joints_count"]),
		ExecutedJointsCount: integer(f["executed_joints_count"]),
		PendingJointsCount:  integer(f["pending_joints_count"]),
		Comment:             str(f["comment"]),
	}
	if row.RevisionNumber == "" {
		row.RevisionNumber = "0"
	}
	return row
}

// NormalizeAnnouncements maps every raw record, preserving order.
func NormalizeAnnouncements(raws []Loose) []AnnouncementRow {
	out := make([]AnnouncementRow, len(raws))
	for i, r := range raws {
		out[i] = NormalizeAnnouncement(r)
	}
	return out
}

// NormalizeWeld maps one raw weld record.
func NormalizeWeld(raw Loose) WeldRow {
	f := fields(raw, weldAliases)
	return WeldRow{
		SpoolNumber: str(f["spool_number"]),
		WeldNumber:  str(f["weld_number"]),
		WeldType:    str(f["weld_type"]),
		NPS:         ParseNPS(f["nps"]),
		Schedule:    str(f["sch"]),
		Thickness:   decimal(f["thickness"]),
		Material:    str(f["material"]),
		Destination: str(f["destination"]),
		Sheet:       str(f["sheet"]),
	}
}

// NormalizeBolt maps one raw bolted-joint record.
func NormalizeBolt(raw Loose) BoltRow {
	f := fields(raw, boltAliases)
	return BoltRow{
		SpoolNumber:        str(f["spool_number"]),
		FlangedJointNumber: str(f["flanged_joint_number"]),
		NPS:                ParseNPS(f["nps"]),
		Rating:             str(f["rating"]),
		BoltSize:           str(f["bolt_size"]),
		Material:           str(f["material"]),
		Sheet:              str(f["sheet"]),
	}
}

// NormalizeMTO maps one raw material take-off record.
func NormalizeMTO(raw Loose) MTORow {
	f := fields(raw, mtoAliases)
	qty, _ := number(f["qty"])
	return MTORow{
		SpoolNumber: str(f["spool_number"]),
		Sheet:       str(f["sheet"]),
		PipingClass: str(f["piping_class"]),
		Fab:         str(f["fab"]),
		ItemCode:    str(f["item_code"]),
		Description: str(f["description"]),
		Qty:         qty,
		QtyUnit:     str(f["qty_unit"]),
		NPS:         ParseNPS(f["nps"]),
		Material:    str(f["material"]),
		Schedule:    str(f["sch"]),
		Weight:      decimal(f["weight"]),
	}
}

// Decode reads a YAML or JSON list of raw records.
func Decode(data []byte) ([]Loose, error) {
	var out []Loose
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("rows: decode: %w", err)
	}
	return out, nil
}

type rawDetail struct {
	BoltedJoints    []Loose `yaml:"bolted_joints"`
	SpoolsWelds     []Loose `yaml:"spools_welds"`
	MaterialTakeOff []Loose `yaml:"material_take_off"`
}

// DecodeDetail reads a YAML or JSON document with bolted_joints,
// spools_welds and material_take_off lists and normalizes each sheet.
func DecodeDetail(data []byte) (Detail, error) {
	var raw rawDetail
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Detail{}, fmt.Errorf("rows: decode detail: %w", err)
	}
	return NormalizeDetail(raw.BoltedJoints, raw.SpoolsWelds, raw.MaterialTakeOff), nil
}

// NormalizeDetail maps the three raw sheets of a detail import.
func NormalizeDetail(bolts, welds, mto []Loose) Detail {
	d := Detail{
		Bolts: make([]BoltRow, 0, len(bolts)),
		Welds: make([]WeldRow, 0, len(welds)),
		MTO:   make([]MTORow, 0, len(mto)),
	}
	for _, r := range bolts {
		d.Bolts = append(d.Bolts, NormalizeBolt(r))
	}
	for _, r := range welds {
		d.Welds = append(d.Welds, NormalizeWeld(r))
	}
	for _, r := range mto {
		d.MTO = append(d.MTO, NormalizeMTO(r))
	}
	return d
}

// canonicalHeader folds accents, lowercases and collapses every run of
// non-alphanumeric characters to a single underscore.
func canonicalHeader(h string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, h)
	if err != nil {
		folded = h
	}
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// fields resolves raw headers through aliases. When two headers map to the
// same field the first non-empty value wins, in sorted header order.
func fields(raw Loose, aliases map[string]string) map[string]any {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(map[string]any, len(raw))
	for _, k := range keys {
		name, ok := aliases[canonicalHeader(k)]
		if !ok {
			continue
		}
		if _, set := out[name]; set && str(out[name]) != "" {
			continue
		}
		out[name] = raw[k]
	}
	return out
}
