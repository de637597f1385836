// Package password implementa hashing de senhas com Argon2id, um algoritmo
// memory-hard. O hash é serializado no formato PHC, autocontido (parâmetros,
// salt e digest na mesma string), o que permite evoluir os parâmetros sem
// invalidar hashes antigos.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Parâmetros do Argon2id (tempo, memória em KiB, paralelismo, tamanhos).
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 2
	argonKeyLen  = 32
	saltLen      = 16
)

// ErrHashInvalido é retornado quando a string armazenada não está no
// formato PHC esperado.
var ErrHashInvalido = errors.New("hash de senha em formato inválido")

// Hash gera o hash Argon2id de uma senha em texto plano.
func Hash(senha string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("falha ao gerar salt: %w", err)
	}

	digest := argon2.IDKey([]byte(senha), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verificar compara uma senha em texto plano com um hash armazenado.
// Retorna true quando a senha corresponde.
func Verificar(senha, hashArmazenado string) (bool, error) {
	partes := strings.Split(hashArmazenado, "$")
	if len(partes) != 6 || partes[1] != "argon2id" {
		return false, ErrHashInvalido
	}

	var versao int
	if _, err := fmt.Sscanf(partes[2], "v=%d", &versao); err != nil {
		return false, ErrHashInvalido
	}

	var memoria uint32
	var tempo uint32
	var threads uint8
	if _, err := fmt.Sscanf(partes[3], "m=%d,t=%d,p=%d", &memoria, &tempo, &threads); err != nil {
		return false, ErrHashInvalido
	}

	salt, err := base64.RawStdEncoding.DecodeString(partes[4])
	if err != nil {
		return false, ErrHashInvalido
	}
	digest, err := base64.RawStdEncoding.DecodeString(partes[5])
	if err != nil {
		return false, ErrHashInvalido
	}

	candidato := argon2.IDKey([]byte(senha), salt, tempo, memoria, threads, uint32(len(digest)))

	// Comparação em tempo constante
	return subtle.ConstantTimeCompare(digest, candidato) == 1, nil
}
