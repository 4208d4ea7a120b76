package auth

import (
	"crypto/subtle"
	"log"
	"os"
)

// adminCredentials is the single env-configured admin account. There is no
// user table; the credentials live only in process memory.
type adminCredentials struct {
	username string
	password string
}

var admin adminCredentials

// LoadAdminCredentials reads ADMIN_USERNAME and ADMIN_PASSWORD at startup.
// With either missing, login stays disabled instead of the server refusing
// to boot.
func LoadAdminCredentials() {
	admin = adminCredentials{
		username: os.Getenv("ADMIN_USERNAME"),
		password: os.Getenv("ADMIN_PASSWORD"),
	}
	if !admin.configured() {
		log.Println("WARNING: ADMIN_USERNAME and ADMIN_PASSWORD are not both set, admin login is disabled.")
	}
}

func (c adminCredentials) configured() bool {
	return c.username != "" && c.password != ""
}

// matches compares submitted credentials in constant time. Unconfigured
// credentials match nothing, including empty input.
func (c adminCredentials) matches(username, password string) bool {
	if !c.configured() {
		return false
	}
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) == 1
	return usernameMatch && passwordMatch
}
