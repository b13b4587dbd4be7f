package models

const RoleCustomer = "0"

type User struct {
	ID           int64
	Correo       string
	PasswordHash string
	Rol          string
}

// Profile is the delivery/contact record stored in formulario, keyed by email.
type Profile struct {
	Nombre           string `json:"nombre"`
	TipoDocumento    string `json:"tipodocumento,omitempty"`
	Documento        string `json:"documento,omitempty"`
	Celular          int64  `json:"celular"`
	DireccionEntrega string `json:"direccionentrega"`
	Departamento     string `json:"Departamento"`
	Municipio        string `json:"Municipio"`
	Barrio           string `json:"Barrio"`
}

// NewAccount carries what registration writes to usuarios and formulario.
type NewAccount struct {
	Correo  string
	Rol     string
	Profile Profile
}
