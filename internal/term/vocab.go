package term

// Well-known namespaces. These are also the built-in prefixes of the
// result codec's prefix table.
const (
	NamespaceRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	NamespaceOWL     = "http://www.w3.org/2002/07/owl#"
	NamespaceXSD     = "http://www.w3.org/2001/XMLSchema#"
	NamespaceFOAF    = "http://xmlns.com/foaf/0.1/"
	NamespaceDC      = "http://purl.org/dc/elements/1.1/"
	NamespaceDCTerms = "http://purl.org/dc/terms/"
	NamespaceSKOS    = "http://www.w3.org/2004/02/skos/core#"
)

// WellKnownPrefixes returns a fresh map of the prefixes that queries may use
// without declaring them and that the codec shortens IRIs with.
func WellKnownPrefixes() map[string]string {
	return map[string]string{
		"rdf":     NamespaceRDF,
		"rdfs":    NamespaceRDFS,
		"owl":     NamespaceOWL,
		"xsd":     NamespaceXSD,
		"foaf":    NamespaceFOAF,
		"dc":      NamespaceDC,
		"dcterms": NamespaceDCTerms,
		"skos":    NamespaceSKOS,
	}
}

// Datatype IRIs used by the loader and the codec.
const (
	XSDString             IRI = NamespaceXSD + "string"
	XSDBoolean            IRI = NamespaceXSD + "boolean"
	XSDInteger            IRI = NamespaceXSD + "integer"
	XSDInt                IRI = NamespaceXSD + "int"
	XSDLong               IRI = NamespaceXSD + "long"
	XSDShort              IRI = NamespaceXSD + "short"
	XSDByte               IRI = NamespaceXSD + "byte"
	XSDNonNegativeInteger IRI = NamespaceXSD + "nonNegativeInteger"
	XSDPositiveInteger    IRI = NamespaceXSD + "positiveInteger"
	XSDNegativeInteger    IRI = NamespaceXSD + "negativeInteger"
	XSDNonPositiveInteger IRI = NamespaceXSD + "nonPositiveInteger"
	XSDUnsignedInt        IRI = NamespaceXSD + "unsignedInt"
	XSDUnsignedLong       IRI = NamespaceXSD + "unsignedLong"
	XSDUnsignedShort      IRI = NamespaceXSD + "unsignedShort"
	XSDUnsignedByte       IRI = NamespaceXSD + "unsignedByte"
	XSDDecimal            IRI = NamespaceXSD + "decimal"
	XSDDouble             IRI = NamespaceXSD + "double"
	XSDFloat              IRI = NamespaceXSD + "float"

	RDFLangString IRI = NamespaceRDF + "langString"
	RDFType       IRI = NamespaceRDF + "type"
)

// datatypeTags maps datatype IRIs to their closed tag.
// Anything absent is TagOther.
var datatypeTags = map[IRI]DatatypeTag{
	XSDInteger:            TagInteger,
	XSDInt:                TagInteger,
	XSDLong:               TagInteger,
	XSDShort:              TagInteger,
	XSDByte:               TagInteger,
	XSDNonNegativeInteger: TagInteger,
	XSDPositiveInteger:    TagInteger,
	XSDNegativeInteger:    TagInteger,
	XSDNonPositiveInteger: TagInteger,
	XSDUnsignedInt:        TagInteger,
	XSDUnsignedLong:       TagInteger,
	XSDUnsignedShort:      TagInteger,
	XSDUnsignedByte:       TagInteger,
	XSDDecimal:            TagDecimal,
	XSDDouble:             TagDouble,
	XSDFloat:              TagDouble,
	XSDBoolean:            TagBoolean,
	XSDString:             TagPlainString,
	RDFLangString:         TagLangString,
}
