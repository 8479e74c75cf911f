// Package model defines the typed schema projections and widget descriptors
// shared by the classifiers, the call marshaller and the renderers. Parameter
// and output descriptions are immutable once parsed from the service schema;
// widget descriptors are pure projections of them and can be regenerated from
// the same schema at any time. Kinds form a closed enumeration (see Kinds) so
// classifiers can be checked for exhaustiveness in tests.
package model
