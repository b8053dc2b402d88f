package provider

import "fmt"

// CredentialsError means a provider is enabled but configured without the
// credentials it needs. Unlike transport or parse failures, which degrade
// to an empty contribution, this is a configuration problem the caller
// should hear about.
type CredentialsError struct {
	Provider string
	Missing  string
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Provider, e.Missing)
}
