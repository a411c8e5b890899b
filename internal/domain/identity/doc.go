// Package identity implements the Identity bounded context: the user account
// aggregate and its credential verification. The auth bounded context consumes
// it only through the UserRepository capability (id, active flag, password
// verifier).
package identity
