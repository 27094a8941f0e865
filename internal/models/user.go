package models

// Roles as the backend spells them
const (
	RoleAdmin = "Administrador"
	RoleUser  = "Usuario"
)

// User is a backend account
type User struct {
	ID       int64  `json:"id_usuario,omitempty"`
	Email    string `json:"correo"`
	Password string `json:"contrasena,omitempty"`
	Role     string `json:"rol"`
}

// Profile is the gameplay identity attached to a user account
type Profile struct {
	ID     int64  `json:"id_perfil,omitempty"`
	UserID int64  `json:"id_usuario,omitempty"`
	Name   string `json:"nombre_perfil"`
	Age    int    `json:"edad"`
	Coins  int    `json:"monedas"`
	Photo  string `json:"foto_perfil,omitempty"`
}

// Account is the session record: the user merged with its profile.
// It is what gets persisted under the "usuario" key.
type Account struct {
	User
	Profile *Profile `json:"perfil"`
}

// IsAdmin reports whether the account carries the administrator role
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Clone returns a deep copy so callers can mutate without touching the original
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Profile != nil {
		p := *a.Profile
		c.Profile = &p
	}
	return &c
}

// NewUserRequest is the registration payload for POST /usuarios/
type NewUserRequest struct {
	Email    string     `json:"correo"`
	Password string     `json:"contrasena"`
	Role     string     `json:"rol"`
	Profile  NewProfile `json:"perfil"`
}

// NewProfile is the nested profile created together with a user
type NewProfile struct {
	Name  string `json:"nombre_perfil"`
	Age   int    `json:"edad"`
	Coins int    `json:"monedas"`
}

// LoginResponse is what POST /login_usuario/ returns
type LoginResponse struct {
	Token   string   `json:"token"`
	User    User     `json:"usuario"`
	Profile *Profile `json:"perfil"`
}
