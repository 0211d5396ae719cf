package auth

// Claims representa la información extraída del token de sesión PetBook.
type Claims struct {
	UserID      string
	Email       string
	DisplayName string

	// Rol declarado por la plataforma: "guardian" | "professional".
	// Informativo: la autorización real siempre se decide contra el pet
	// (owner lookup) o contra los grants, nunca solo por el rol.
	Role string
}
