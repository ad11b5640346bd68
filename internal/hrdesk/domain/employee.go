package domain

// EmployeeDetails is the HR profile of the signed-in user.
type EmployeeDetails struct {
	EmployeeID      int64  `json:"employeeID"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Department      string `json:"department"`
	Faculty         string `json:"faculty"`
	HasActiveSalary bool   `json:"hasActiveSalary"`
	ImmediateBossID int64  `json:"immediateBossId"`
}

// Equal compares the fields that are observable to the rest of the app.
// ImmediateBossID is not compared.
func (e *EmployeeDetails) Equal(o *EmployeeDetails) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.EmployeeID == o.EmployeeID &&
		e.Email == o.Email &&
		e.FirstName == o.FirstName &&
		e.LastName == o.LastName &&
		e.Department == o.Department &&
		e.Faculty == o.Faculty &&
		e.HasActiveSalary == o.HasActiveSalary
}

// FullName joins first and last name.
func (e *EmployeeDetails) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

func (e *EmployeeDetails) Clone() *EmployeeDetails {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
