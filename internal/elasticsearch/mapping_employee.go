package elasticsearch

// Mapping schemes for the employee index family. Each scheme is created as its own index
// named "<prefix>_<scheme>".
const (
	SchemePOCO            = "poco"
	SchemeAttribute       = "attribute"
	SchemeFluentAttribute = "fluentattribute"
)

// Schemes lists the supported mapping schemes.
func Schemes() []string {
	return []string{SchemePOCO, SchemeAttribute, SchemeFluentAttribute}
}

// SchemeMapping returns the mapping declared by a scheme.
func SchemeMapping(scheme string) (Mapping, bool) {
	switch scheme {
	case SchemePOCO:
		return CompanyAutoMapping(), true
	case SchemeAttribute:
		return EmployeeAttributeMapping(), true
	case SchemeFluentAttribute:
		return CompanyFluentMapping(), true
	}
	return Mapping{}, false
}

// CompanyAutoMapping is the mapping inferred from the Company model: strings become text with a
// keyword sub-field, employees an object. Field names are camelCase.
func CompanyAutoMapping() Mapping {
	return Mapping{Properties: map[string]Property{
		"id":              textWithKeyword(),
		"name":            textWithKeyword(),
		"companyLocation": textWithKeyword(),
		"employees":       {Type: "object", Properties: employeeAutoProperties()},
	}}
}

func employeeAutoProperties() map[string]Property {
	return map[string]Property{
		"firstName": textWithKeyword(),
		"lastName":  textWithKeyword(),
		"salary":    {Type: "integer"},
		"birthday":  {Type: "date"},
		"isManager": {Type: "boolean"},
		"hours":     {Type: "long"},
	}
}

// EmployeeAttributeMapping declares every field option explicitly: norms, doc values, coercion,
// custom date format, null value and a nested self reference.
func EmployeeAttributeMapping() Mapping {
	props := map[string]Property{
		"first_name": {Type: "text", Norms: boolPtr(false)},
		"last_name":  {Type: "text"},
		"salary": {
			Type:            "integer",
			DocValues:       boolPtr(false),
			IgnoreMalformed: boolPtr(true),
			Coerce:          boolPtr(true),
		},
		"birthday":     {Type: "date", Format: "MM-dd-yyyy"},
		"isManager":    {Type: "boolean", NullValue: false, Store: boolPtr(true)},
		"office_hours": {Type: "text"},
		"skills": {Type: "object", Properties: map[string]Property{
			"name":  {Type: "text"},
			"level": {Type: "byte"},
		}},
	}
	nested := make(map[string]Property, len(props))
	for k, v := range props {
		nested[k] = v
	}
	props["empl"] = Property{Type: "nested", Properties: nested}
	return Mapping{Properties: props}
}

// CompanyFluentMapping maps only the fields named explicitly.
func CompanyFluentMapping() Mapping {
	return Mapping{Properties: map[string]Property{
		"name": {Type: "text"},
		"employees": {Type: "object", Properties: map[string]Property{
			"firstName": {Type: "text"},
			"lastName":  {Type: "text"},
			"salary":    {Type: "integer"},
		}},
	}}
}

func textWithKeyword() Property {
	return Property{
		Type:   "text",
		Fields: map[string]Property{"keyword": {Type: "keyword", IgnoreAbove: 256}},
	}
}
