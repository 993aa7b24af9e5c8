package sdi

import (
	"regexp"
	"sort"
	"strings"
)

// leadingCode captura un código de 5 dígitos al inicio del texto ("00433 - importi non coerenti").
// \b evita aceptar el prefijo de un número más largo.
var leadingCode = regexp.MustCompile(`^\s*(\d{5})\b`)

// codeToken cualquier número de 5 dígitos; codeClause lo que sigue a un código ("- …", ": …").
var (
	codeToken  = regexp.MustCompile(`\b\d{5}\b`)
	codeClause = regexp.MustCompile(`^\s*[-–:]`)
)

// Registry catálogo inmutable de códigos de error del SdI.
type Registry struct {
	codes map[string]ErrorCode
}

var defaultRegistry = NewRegistry()

// DefaultRegistry devuelve el catálogo construido al iniciar el proceso.
func DefaultRegistry() *Registry { return defaultRegistry }

// NewRegistry construye el catálogo a partir de las tablas de error_codes.go.
func NewRegistry() *Registry {
	entries := catalog()
	codes := make(map[string]ErrorCode, len(entries))
	for _, e := range entries {
		codes[e.code] = ErrorCode{
			Code:        e.code,
			Description: e.description,
			Suggestion:  e.suggestion,
			Severity:    severityOf(e.code),
			AutoFixable: autoFixableCodes[e.code],
		}
	}
	return &Registry{codes: codes}
}

// Lookup busca un código exacto.
func (r *Registry) Lookup(code string) (ErrorCode, bool) {
	ec, ok := r.codes[strings.TrimSpace(code)]
	return ec, ok
}

// ParseFromMessage extrae el código de 5 dígitos al inicio del texto y lo busca en el catálogo.
// Devuelve false si el texto no empieza por un código o si el código no está catalogado;
// en ese caso el llamador debe conservar el texto original para triage manual.
func (r *Registry) ParseFromMessage(text string) (ErrorCode, bool) {
	m := leadingCode.FindStringSubmatch(text)
	if m == nil {
		return ErrorCode{}, false
	}
	return r.Lookup(m[1])
}

// ParseAll divide un mensaje con varios errores (uno por línea, o separados por ";" o "|")
// y clasifica cada segmento. Un segmento puede traer varios códigos seguidos
// ("00428 - CAP non valido, 00421 - Imposta non calcolata"): cada código catalogado, o
// cada número de 5 dígitos con forma de código, abre una cláusula propia. Las cláusulas
// no reconocidas se devuelven en unclassified. Los códigos repetidos se devuelven una
// sola vez, en orden de aparición.
func (r *Registry) ParseAll(text string) (codes []ErrorCode, unclassified []string) {
	seen := make(map[string]bool)
	for _, segment := range splitSegments(text) {
		for _, clause := range r.splitClauses(segment) {
			ec, ok := r.ParseFromMessage(clause)
			if !ok {
				unclassified = append(unclassified, clause)
				continue
			}
			if seen[ec.Code] {
				continue
			}
			seen[ec.Code] = true
			codes = append(codes, ec)
		}
	}
	return codes, unclassified
}

// splitClauses corta el segmento antes de cada código posterior al inicial. Un número
// que no está catalogado y no va seguido de "-" o ":" se queda en la descripción
// (importes, CAP citados en el texto). Sin código inicial el segmento va entero.
func (r *Registry) splitClauses(segment string) []string {
	lead := leadingCode.FindStringIndex(segment)
	if lead == nil {
		return []string{segment}
	}
	var (
		out   []string
		start = 0
	)
	for _, loc := range codeToken.FindAllStringIndex(segment[lead[1]:], -1) {
		at, end := lead[1]+loc[0], lead[1]+loc[1]
		if _, known := r.codes[segment[at:end]]; !known && !codeClause.MatchString(segment[end:]) {
			continue
		}
		if c := trimClause(segment[start:at]); c != "" {
			out = append(out, c)
		}
		start = at
	}
	if c := trimClause(segment[start:]); c != "" {
		out = append(out, c)
	}
	return out
}

func trimClause(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), " ,.-–:")
}

// Resolve convierte una lista de códigos en sus entradas de catálogo; los desconocidos
// se devuelven aparte.
func (r *Registry) Resolve(codes []string) (known []ErrorCode, unknown []string) {
	for _, c := range codes {
		if ec, ok := r.Lookup(c); ok {
			known = append(known, ec)
			continue
		}
		unknown = append(unknown, c)
	}
	return known, unknown
}

// AllAutoFixable es true sólo si hay al menos un código y todos están catalogados
// como corregibles automáticamente. Una lista vacía nunca habilita la auto-corrección.
func (r *Registry) AllAutoFixable(codes []string) bool {
	if len(codes) == 0 {
		return false
	}
	for _, c := range codes {
		ec, ok := r.Lookup(c)
		if !ok || !ec.AutoFixable {
			return false
		}
	}
	return true
}

// All devuelve una copia del catálogo ordenada por código.
func (r *Registry) All() []ErrorCode {
	out := make([]ErrorCode, 0, len(r.codes))
	for _, ec := range r.codes {
		out = append(out, ec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len número de códigos catalogados.
func (r *Registry) Len() int { return len(r.codes) }

func splitSegments(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			out = append(out, s)
		}
	}
	return out
}
