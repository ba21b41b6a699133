// Package model holds the documents and payloads exchanged by the HTTP surface.
package model

import (
	"time"
)

// Company is the document stored in the employee_poco and employee_fluentattribute indices.
// A non-empty ID doubles as the document id.
type Company struct {
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name"`
	CompanyLocation string     `json:"companyLocation,omitempty"`
	Employees       []Employee `json:"employees,omitempty"`
}

type Employee struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Salary    int        `json:"salary"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	IsManager bool       `json:"isManager"`
	Employees []Employee `json:"employees,omitempty"`
	// Hours is stored as a long.
	Hours time.Duration `json:"hours,omitempty"`
}

// EmployeeWithAttribute is the document stored in the employee_attribute index.
type EmployeeWithAttribute struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Salary    int    `json:"salary"`
	// Birthday uses the MM-dd-yyyy format declared by the mapping.
	Birthday    string                  `json:"birthday,omitempty"`
	IsManager   bool                    `json:"isManager"`
	Employees   []EmployeeWithAttribute `json:"empl,omitempty"`
	OfficeHours string                  `json:"office_hours,omitempty"`
	Skills      []Skill                 `json:"skills,omitempty"`
}

type Skill struct {
	Name        string `json:"name"`
	Proficiency int    `json:"level"`
}
