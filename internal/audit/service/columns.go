package service

import (
	"strconv"
	"strings"
)

// Logical item fields filled from the upload.
const (
	FieldCode        = "code"
	FieldName        = "name"
	FieldSystemQty   = "system_qty"
	FieldPhysicalQty = "physical_qty"
	FieldStatus      = "status"
)

// columnCandidates lists, per logical field, the header names accepted for it in priority order.
// Matching is case-insensitive.
var columnCandidates = []struct {
	field      string
	candidates []string
}{
	{FieldCode, []string{"code", "codigo"}},
	{FieldName, []string{"name", "descricao"}},
	{FieldSystemQty, []string{"system_qty", "sistema"}},
	{FieldPhysicalQty, []string{"physical_qty", "fisico"}},
	{FieldStatus, []string{"status", "situacao"}},
}

// columnMap resolves each logical field to the header positions of its candidates.
type columnMap map[string][]int

func newColumnMap(header []string) columnMap {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	m := make(columnMap, len(columnCandidates))
	for _, c := range columnCandidates {
		for _, name := range c.candidates {
			if i, ok := pos[name]; ok {
				m[c.field] = append(m[c.field], i)
			}
		}
	}
	return m
}

// raw returns the first non-empty value among field's candidate columns, untrimmed.
// ok is false when no candidate holds a value.
func (m columnMap) raw(fields []string, field string) (string, bool) {
	for _, i := range m[field] {
		if i < len(fields) && fields[i] != "" {
			return fields[i], true
		}
	}
	return "", false
}

// text returns the trimmed value of field, or "" when absent.
func (m columnMap) text(fields []string, field string) string {
	v, _ := m.raw(fields, field)
	return strings.TrimSpace(v)
}

// quantity applies the import quantity rule: no value gives 0; a value that is not an integer
// after trimming gives nil and ok=false.
func (m columnMap) quantity(fields []string, field string) (qty *int64, raw string, ok bool) {
	v, present := m.raw(fields, field)
	if !present {
		zero := int64(0)
		return &zero, "", true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return nil, v, false
	}
	return &n, v, true
}
