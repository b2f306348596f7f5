// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ifc provides read-only access to building models stored as IFC
// STEP files (ISO 10303-21). It decodes the subset of the exchange format
// needed for entity lookup, property sets, and structured quantity sets:
// typed records, strings, numbers, enums, entity references, nested lists,
// and typed simple values such as IFCAREAMEASURE(12.5).
//
// Thread Safety:
//
//	A Model is immutable after Open/Decode and safe for concurrent reads.
package ifc

import (
	"fmt"
	"strconv"
	"strings"
)

// valueKind discriminates the decoded forms of a STEP attribute value.
type valueKind uint8

const (
	kindNull   valueKind = iota // $ or * (unset / derived)
	kindString                  // 'text'
	kindNumber                  // 12, 12.5, 1.0E-2
	kindRef                     // #42
	kindEnum                    // .T., .ELEMENT.
	kindList                    // (a, b, c)
	kindTyped                   // IFCAREAMEASURE(12.5)
)

// stepValue is a single decoded attribute value.
type stepValue struct {
	kind valueKind
	str  string      // kindString, kindEnum
	num  float64     // kindNumber
	ref  int64       // kindRef
	list []stepValue // kindList; for kindTyped, the wrapped arguments
	typ  string      // kindTyped: the wrapping type name, uppercased
}

// unwrap strips typed-value wrappers, e.g. IFCAREAMEASURE(12.5) -> 12.5.
func (v stepValue) unwrap() stepValue {
	for v.kind == kindTyped && len(v.list) == 1 {
		v = v.list[0]
	}
	return v
}

// asAny converts a value to a plain Go representation for property maps.
// Enums .T. and .F. map to booleans; unset values map to nil.
func (v stepValue) asAny() any {
	v = v.unwrap()
	switch v.kind {
	case kindString:
		return v.str
	case kindNumber:
		return v.num
	case kindEnum:
		switch v.str {
		case "T":
			return true
		case "F":
			return false
		}
		return v.str
	default:
		return nil
	}
}

// stepEntity is one record from the DATA section: #id=TYPE(args);
type stepEntity struct {
	id   int64
	typ  string
	args []stepValue
}

// arg returns the attribute at index i, or a null value when the record is
// shorter than expected.
func (e *stepEntity) arg(i int) stepValue {
	if i < 0 || i >= len(e.args) {
		return stepValue{kind: kindNull}
	}
	return e.args[i]
}

// stringArg returns the attribute at index i as a string, or "" when unset.
func (e *stepEntity) stringArg(i int) string {
	v := e.arg(i).unwrap()
	if v.kind == kindString {
		return v.str
	}
	return ""
}

// splitStatements cuts the raw file into ';'-terminated statements,
// honoring string literals (with '' escapes) and /* */ comments.
func splitStatements(data []byte) []string {
	var (
		stmts    []string
		buf      strings.Builder
		inString bool
	)
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			buf.WriteByte(c)
			if c == '\'' {
				if i+1 < len(data) && data[i+1] == '\'' {
					buf.WriteByte('\'')
					i++
					continue
				}
				inString = false
			}
			continue
		}
		switch c {
		case '\'':
			inString = true
			buf.WriteByte(c)
		case '/':
			if i+1 < len(data) && data[i+1] == '*' {
				i += 2
				for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
					i++
				}
				i++ // skip the trailing '/'
				continue
			}
			buf.WriteByte(c)
		case ';':
			if s := strings.TrimSpace(buf.String()); s != "" {
				stmts = append(stmts, s)
			}
			buf.Reset()
		default:
			buf.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// parseSchema extracts the first schema identifier from a FILE_SCHEMA
// statement, e.g. FILE_SCHEMA(('IFC4')) -> "IFC4".
func parseSchema(stmt string) string {
	open := strings.Index(stmt, "(")
	if open < 0 {
		return ""
	}
	p := &valueParser{s: stmt[open+1:]}
	vals, err := p.parseUntilClose()
	if err != nil || len(vals) == 0 {
		return ""
	}
	v := vals[0].unwrap()
	if v.kind == kindList && len(v.list) > 0 {
		v = v.list[0].unwrap()
	}
	if v.kind == kindString {
		return v.str
	}
	return ""
}

// parseEntity decodes one DATA-section statement of the form
// #id=TYPE(arg, arg, ...).
func parseEntity(stmt string) (*stepEntity, error) {
	if !strings.HasPrefix(stmt, "#") {
		return nil, fmt.Errorf("not an entity instance: %q", preview(stmt))
	}
	eq := strings.Index(stmt, "=")
	if eq < 0 {
		return nil, fmt.Errorf("missing '=' in %q", preview(stmt))
	}
	id, err := strconv.ParseInt(strings.TrimSpace(stmt[1:eq]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad instance id in %q: %w", preview(stmt), err)
	}
	rest := strings.TrimSpace(stmt[eq+1:])
	open := strings.Index(rest, "(")
	if open < 0 || !strings.HasSuffix(rest, ")") {
		return nil, fmt.Errorf("malformed record #%d: %q", id, preview(rest))
	}
	typ := strings.ToUpper(strings.TrimSpace(rest[:open]))
	p := &valueParser{s: rest[open+1 : len(rest)-1]}
	args, err := p.parseValues()
	if err != nil {
		return nil, fmt.Errorf("record #%d (%s): %w", id, typ, err)
	}
	return &stepEntity{id: id, typ: typ, args: args}, nil
}

// valueParser decodes a comma-separated attribute list.
type valueParser struct {
	s   string
	pos int
}

// parseValues decodes values until the input is exhausted.
func (p *valueParser) parseValues() ([]stepValue, error) {
	var vals []stepValue
	p.skipSpace()
	if p.pos >= len(p.s) {
		return vals, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return vals, nil
		}
		if p.s[p.pos] != ',' {
			return nil, fmt.Errorf("unexpected %q at offset %d", p.s[p.pos], p.pos)
		}
		p.pos++
	}
}

// parseUntilClose decodes values up to (and consuming) a matching ')'.
func (p *valueParser) parseUntilClose() ([]stepValue, error) {
	var vals []stepValue
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ')' {
		p.pos++
		return vals, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, fmt.Errorf("unterminated list")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return vals, nil
		default:
			return nil, fmt.Errorf("unexpected %q in list at offset %d", p.s[p.pos], p.pos)
		}
	}
}

func (p *valueParser) parseValue() (stepValue, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return stepValue{}, fmt.Errorf("unexpected end of attribute list")
	}
	switch c := p.s[p.pos]; {
	case c == '$' || c == '*':
		p.pos++
		return stepValue{kind: kindNull}, nil
	case c == '\'':
		return p.parseString()
	case c == '#':
		return p.parseRef()
	case c == '.':
		return p.parseEnum()
	case c == '(':
		p.pos++
		list, err := p.parseUntilClose()
		if err != nil {
			return stepValue{}, err
		}
		return stepValue{kind: kindList, list: list}, nil
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentByte(c):
		return p.parseTyped()
	default:
		return stepValue{}, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
	}
}

func (p *valueParser) parseString() (stepValue, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '\'' {
			if p.pos+1 < len(p.s) && p.s[p.pos+1] == '\'' {
				b.WriteByte('\'')
				p.pos += 2
				continue
			}
			p.pos++
			return stepValue{kind: kindString, str: b.String()}, nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return stepValue{}, fmt.Errorf("unterminated string literal")
}

func (p *valueParser) parseRef() (stepValue, error) {
	p.pos++ // '#'
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return stepValue{}, fmt.Errorf("empty entity reference at offset %d", start)
	}
	id, err := strconv.ParseInt(p.s[start:p.pos], 10, 64)
	if err != nil {
		return stepValue{}, err
	}
	return stepValue{kind: kindRef, ref: id}, nil
}

func (p *valueParser) parseEnum() (stepValue, error) {
	p.pos++ // leading '.'
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != '.' {
		p.pos++
	}
	if p.pos >= len(p.s) {
		return stepValue{}, fmt.Errorf("unterminated enumeration at offset %d", start)
	}
	val := p.s[start:p.pos]
	p.pos++ // trailing '.'
	return stepValue{kind: kindEnum, str: strings.ToUpper(val)}, nil
}

func (p *valueParser) parseNumber() (stepValue, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	// STEP allows a trailing decimal point ("3."), which strconv rejects.
	text := strings.TrimSuffix(p.s[start:p.pos], ".")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return stepValue{}, fmt.Errorf("bad number %q at offset %d: %w", p.s[start:p.pos], start, err)
	}
	return stepValue{kind: kindNumber, num: f}, nil
}

func (p *valueParser) parseTyped() (stepValue, error) {
	start := p.pos
	for p.pos < len(p.s) && isIdentByte(p.s[p.pos]) {
		p.pos++
	}
	name := strings.ToUpper(p.s[start:p.pos])
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '(' {
		return stepValue{}, fmt.Errorf("expected '(' after %s at offset %d", name, p.pos)
	}
	p.pos++
	args, err := p.parseUntilClose()
	if err != nil {
		return stepValue{}, err
	}
	return stepValue{kind: kindTyped, typ: name, list: args}, nil
}

func (p *valueParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func isIdentByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_'
}

func preview(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
