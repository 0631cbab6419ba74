package apptest

import "github.com/riveredge/platform-kernel/pkg/password"

// FastParams argon2id barato para pruebas.
var FastParams = password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// FastHash hashea con FastParams.
func FastHash(plain string) (string, error) { return password.HashWith(plain, FastParams) }
