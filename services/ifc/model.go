// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ifc

import (
	"fmt"
	"os"
	"strings"
)

// Category is a high-level building element category. Each category maps
// to one or more STEP entity types.
type Category string

const (
	CategoryWall   Category = "wall"
	CategoryDoor   Category = "door"
	CategoryWindow Category = "window"
	CategorySpace  Category = "space"
	CategorySlab   Category = "slab"
	CategoryRoof   Category = "roof"
	CategoryStair  Category = "stair"
	CategoryColumn Category = "column"
	CategoryBeam   Category = "beam"
)

// categoryTypes maps a category to the STEP type names it covers.
var categoryTypes = map[Category][]string{
	CategoryWall:   {"IFCWALL", "IFCWALLSTANDARDCASE"},
	CategoryDoor:   {"IFCDOOR"},
	CategoryWindow: {"IFCWINDOW"},
	CategorySpace:  {"IFCSPACE"},
	CategorySlab:   {"IFCSLAB"},
	CategoryRoof:   {"IFCROOF"},
	CategoryStair:  {"IFCSTAIR"},
	CategoryColumn: {"IFCCOLUMN"},
	CategoryBeam:   {"IFCBEAM"},
}

// quantityTypeForMeasure maps a measurement keyword to the structured
// quantity entity type that carries it.
var quantityTypeForMeasure = map[string]string{
	"area":   "IFCQUANTITYAREA",
	"volume": "IFCQUANTITYVOLUME",
	"length": "IFCQUANTITYLENGTH",
}

// Attribute positions in the IFC schemas this package reads. These are
// stable across IFC2X3 and IFC4 for the entity types below.
const (
	attrGlobalID        = 0 // IfcRoot.GlobalId
	attrName            = 2 // IfcRoot.Name
	attrRelatedObjects  = 4 // IfcRelDefinesByProperties.RelatedObjects
	attrRelatingPropDef = 5 // IfcRelDefinesByProperties.RelatingPropertyDefinition
	attrQuantities      = 5 // IfcElementQuantity.Quantities
	attrHasProperties   = 4 // IfcPropertySet.HasProperties
	attrQuantityValue   = 3 // IfcQuantityArea.AreaValue / Volume / Length
	attrPropName        = 0 // IfcPropertySingleValue.Name
	attrNominalValue    = 2 // IfcPropertySingleValue.NominalValue
)

// Element is an immutable snapshot of one building element.
type Element struct {
	id       int64
	GlobalID string
	Name     string
	StepType string
}

// QuantityEntry is one named quantity found in a structured quantity set,
// as surfaced by the inspection report.
type QuantityEntry struct {
	SetName string
	Name    string
	Kind    string // STEP type, e.g. IFCQUANTITYAREA
	Value   float64
}

// BuildingInfo is the model's identity block.
type BuildingInfo struct {
	Schema       string
	ProjectName  string
	BuildingName string
	SiteName     string
}

// Model is a parsed IFC file.
//
// Description:
//
//	Model owns all decoded entities and exposes the typed lookups the
//	query engine consumes: elements by category, property sets, and
//	structured quantity traversal. The model is treated as read-only for
//	the lifetime of a session; queries never mutate it.
//
// Thread Safety: safe for concurrent reads after construction.
type Model struct {
	path     string
	schema   string
	entities map[int64]*stepEntity
	byType   map[string][]*stepEntity

	// relsByObject indexes IFCRELDEFINESBYPROPERTIES relationships by the
	// id of each related object, so per-element traversal is a map lookup.
	relsByObject map[int64][]*stepEntity
}

// Open reads and decodes an IFC file. Any read or decode error is a load
// failure: fatal to the session, surfaced immediately.
func Open(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening IFC file %s: %w", path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing IFC file %s: %w", path, err)
	}
	m.path = path
	return m, nil
}

// Decode parses raw IFC STEP content.
//
// Inputs:
//   - data: the full file content, header and DATA section included.
//
// Outputs:
//   - *Model: the decoded model.
//   - error: non-nil when the content is not a STEP exchange file. A
//     malformed individual record is tolerated and skipped; the file as a
//     whole must still carry a DATA section.
func Decode(data []byte) (*Model, error) {
	stmts := splitStatements(data)
	if len(stmts) == 0 || !strings.EqualFold(stmts[0], "ISO-10303-21") {
		return nil, fmt.Errorf("not an ISO 10303-21 exchange file")
	}

	m := &Model{
		entities:     make(map[int64]*stepEntity),
		byType:       make(map[string][]*stepEntity),
		relsByObject: make(map[int64][]*stepEntity),
	}

	inData := false
	sawData := false
	for _, stmt := range stmts[1:] {
		upper := strings.ToUpper(stmt)
		switch {
		case upper == "DATA":
			inData = true
			sawData = true
			continue
		case upper == "ENDSEC":
			inData = false
			continue
		case strings.HasPrefix(upper, "FILE_SCHEMA"):
			m.schema = parseSchema(stmt)
			continue
		}
		if !inData || !strings.HasPrefix(stmt, "#") {
			continue
		}
		ent, err := parseEntity(stmt)
		if err != nil {
			// A single bad record must not abort the whole model.
			continue
		}
		m.entities[ent.id] = ent
		m.byType[ent.typ] = append(m.byType[ent.typ], ent)
	}
	if !sawData {
		return nil, fmt.Errorf("missing DATA section")
	}

	for _, rel := range m.byType["IFCRELDEFINESBYPROPERTIES"] {
		related := rel.arg(attrRelatedObjects)
		if related.kind != kindList {
			continue
		}
		for _, obj := range related.list {
			if obj.kind == kindRef {
				m.relsByObject[obj.ref] = append(m.relsByObject[obj.ref], rel)
			}
		}
	}
	return m, nil
}

// Path returns the file path the model was opened from, or "".
func (m *Model) Path() string { return m.path }

// Schema returns the schema identifier from the file header (e.g. "IFC4").
func (m *Model) Schema() string { return m.schema }

// BuildingInfo returns the model's project, building, and site names.
func (m *Model) BuildingInfo() BuildingInfo {
	return BuildingInfo{
		Schema:       m.schema,
		ProjectName:  m.firstName("IFCPROJECT"),
		BuildingName: m.firstName("IFCBUILDING"),
		SiteName:     m.firstName("IFCSITE"),
	}
}

func (m *Model) firstName(stepType string) string {
	ents := m.byType[stepType]
	if len(ents) == 0 {
		return ""
	}
	return ents[0].stringArg(attrName)
}

// ElementsOf returns every element of the category, in file order.
func (m *Model) ElementsOf(cat Category) []Element {
	var out []Element
	for _, typ := range categoryTypes[cat] {
		for _, ent := range m.byType[typ] {
			out = append(out, Element{
				id:       ent.id,
				GlobalID: ent.stringArg(attrGlobalID),
				Name:     ent.stringArg(attrName),
				StepType: ent.typ,
			})
		}
	}
	return out
}

// Count returns the number of elements of the category.
func (m *Model) Count(cat Category) int {
	n := 0
	for _, typ := range categoryTypes[cat] {
		n += len(m.byType[typ])
	}
	return n
}

// QuantityValues traverses the element's property-definition relationships
// and returns every structured quantity value matching the measure.
//
// Description:
//
//	Follows IFCRELDEFINESBYPROPERTIES to IFCELEMENTQUANTITY sets and
//	collects values from quantity entities of the type mapped to the
//	measure keyword ("area" -> IFCQUANTITYAREA, and so on). Quantity
//	entities of other kinds within the same set are ignored.
//
// Outputs:
//   - []float64: matched values; empty when the element carries none.
//   - error: non-nil when a relationship on this element is malformed.
//     Callers treat that as a per-element failure and skip the element.
func (m *Model) QuantityValues(el Element, measure string) ([]float64, error) {
	qType, ok := quantityTypeForMeasure[strings.ToLower(measure)]
	if !ok {
		return nil, fmt.Errorf("no structured quantity type for measure %q", measure)
	}

	var vals []float64
	for _, rel := range m.relsByObject[el.id] {
		def, err := m.deref(rel.arg(attrRelatingPropDef))
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", el.GlobalID, err)
		}
		if def.typ != "IFCELEMENTQUANTITY" {
			continue
		}
		quantities := def.arg(attrQuantities)
		if quantities.kind != kindList {
			return nil, fmt.Errorf("element %s: quantity set #%d has no quantity list", el.GlobalID, def.id)
		}
		for _, qv := range quantities.list {
			if qv.kind != kindRef {
				continue
			}
			q := m.entities[qv.ref]
			if q == nil || q.typ != qType {
				continue
			}
			if raw := q.arg(attrQuantityValue).unwrap(); raw.kind == kindNumber {
				vals = append(vals, raw.num)
			}
		}
	}
	return vals, nil
}

// PropertySets returns the element's property sets as a mapping of pset
// name to key/value pairs. Values are unwrapped to float64, string, or
// bool; unset values are nil.
func (m *Model) PropertySets(el Element) (map[string]map[string]any, error) {
	psets := make(map[string]map[string]any)
	for _, rel := range m.relsByObject[el.id] {
		def, err := m.deref(rel.arg(attrRelatingPropDef))
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", el.GlobalID, err)
		}
		if def.typ != "IFCPROPERTYSET" {
			continue
		}
		name := def.stringArg(attrName)
		props := def.arg(attrHasProperties)
		if props.kind != kindList {
			continue
		}
		values := psets[name]
		if values == nil {
			values = make(map[string]any)
			psets[name] = values
		}
		for _, pv := range props.list {
			if pv.kind != kindRef {
				continue
			}
			p := m.entities[pv.ref]
			if p == nil || p.typ != "IFCPROPERTYSINGLEVALUE" {
				continue
			}
			key := p.stringArg(attrPropName)
			if key == "" {
				continue
			}
			values[key] = p.arg(attrNominalValue).asAny()
		}
	}
	return psets, nil
}

// QuantityEntries lists every structured quantity attached to the element,
// regardless of kind. Used by the inspection report.
func (m *Model) QuantityEntries(el Element) []QuantityEntry {
	var out []QuantityEntry
	for _, rel := range m.relsByObject[el.id] {
		def, err := m.deref(rel.arg(attrRelatingPropDef))
		if err != nil || def.typ != "IFCELEMENTQUANTITY" {
			continue
		}
		setName := def.stringArg(attrName)
		quantities := def.arg(attrQuantities)
		if quantities.kind != kindList {
			continue
		}
		for _, qv := range quantities.list {
			if qv.kind != kindRef {
				continue
			}
			q := m.entities[qv.ref]
			if q == nil || !strings.HasPrefix(q.typ, "IFCQUANTITY") {
				continue
			}
			entry := QuantityEntry{SetName: setName, Name: q.stringArg(attrPropName), Kind: q.typ}
			if raw := q.arg(attrQuantityValue).unwrap(); raw.kind == kindNumber {
				entry.Value = raw.num
			}
			out = append(out, entry)
		}
	}
	return out
}

// HasQuantityData reports whether any element of the category carries a
// structured quantity set.
func (m *Model) HasQuantityData(cat Category) bool {
	for _, el := range m.ElementsOf(cat) {
		if len(m.QuantityEntries(el)) > 0 {
			return true
		}
	}
	return false
}

// deref resolves an entity reference to its record.
func (m *Model) deref(v stepValue) (*stepEntity, error) {
	if v.kind != kindRef {
		return nil, fmt.Errorf("expected entity reference, got value kind %d", v.kind)
	}
	ent := m.entities[v.ref]
	if ent == nil {
		return nil, fmt.Errorf("dangling entity reference #%d", v.ref)
	}
	return ent, nil
}
