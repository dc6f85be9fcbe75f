package domain

type User struct {
	ID       int
	Email    string
	Nombre   string
	Apellido string
	Telefono string
	Rol      string
}

func (u User) FullName() string {
	if u.Apellido == "" {
		return u.Nombre
	}
	return u.Nombre + " " + u.Apellido
}
