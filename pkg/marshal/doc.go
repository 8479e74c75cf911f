// Package marshal converts widget values into prediction requests and
// prediction responses back into widget-ordered values.
//
// A Marshaller is built once per prepared endpoint and holds only immutable
// schema-derived state, so a single instance can serve every call. Transient
// files created while parsing a response are returned to the caller inside
// the Result and are never removed by this package.
package marshal
