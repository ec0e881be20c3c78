package types

// User represents an administrator account allowed to manage packages.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id"`

	// Username is the login name. Uniqueness is not enforced by the store;
	// lookups return the first match in collection order.
	Username string `json:"username"`

	// Password holds the bcrypt hash of the user's password. Records written
	// before hashing was introduced may still hold the plaintext value.
	Password string `json:"password"`
}
