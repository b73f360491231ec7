package bitrix

import "fmt"

// ConfigurationError: webhook não configurado. Fatal, sem retry.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// TransportError: falha de rede/HTTP falando com o Bitrix.
// Aborta a busca inteira (sem resultado parcial).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bitrix transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError: resposta de topo malformada (sem lista em result).
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "bitrix protocol: " + e.Message
}

// ValidationError: um item da página não passou no schema.
// Tratado por item: loga, descarta e a busca continua.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TimestampError: DATE_CREATE que não parseia. Mesmo tratamento
// da falha de validação: o item é descartado, o lote segue.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("timestamp inválido %q: %v", e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error {
	return e.Err
}
