// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/maitre-ia/sumy-tui/internal/sumiller"
)

// User-visible error texts. Every description starts with "Error".
const (
	errTextNetwork  = "Error de conexión: no se pudo contactar con Sumy. Comprueba tu conexión e inténtalo de nuevo."
	errTextCanceled = "Error: la consulta se canceló antes de recibir respuesta."
	errTextInvalid  = "Error: Sumy devolvió una respuesta que no se pudo interpretar."
	errTextUnknown  = "Error inesperado al procesar tu consulta. Inténtalo de nuevo."
)

// DescribeError converts a failed query into the text shown in the chat.
func DescribeError(err error) string {
	var ce *sumiller.ClientError
	if !errors.As(err, &ce) {
		return errTextUnknown
	}

	switch ce.Type {
	case sumiller.ErrTypeNetwork:
		return errTextNetwork
	case sumiller.ErrTypeServer:
		msg := ce.Message
		if msg == "" {
			msg = http.StatusText(ce.StatusCode)
		}
		return fmt.Sprintf("Error del servidor (%d): %s", ce.StatusCode, msg)
	case sumiller.ErrTypeCanceled:
		return errTextCanceled
	case sumiller.ErrTypeInvalidResponse:
		return errTextInvalid
	case sumiller.ErrTypeValidation:
		return "Error: " + ce.Message
	}
	return errTextUnknown
}
