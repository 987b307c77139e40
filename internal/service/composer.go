package service

import (
	"errors"
	"fmt"

	"plata-bot/internal/models"

	"github.com/shopspring/decimal"
)

// MessageComposer renders every user-visible reply. The core hands it domain
// results and taxonomy errors; raw storage errors never reach the sender.
type MessageComposer interface {
	Greeting() string
	Help() string
	LinkInstructions() string
	OTPSent() string
	OTPCode(code string) string
	MovementConfirmation(m *models.Movement, balance decimal.Decimal) string
	DuplicateNotice(m *models.Movement) string
	TransferConfirmation(amount decimal.Decimal, srcID, dstID int64, srcBalance, dstBalance decimal.Decimal) string
	ContinuePrompt() string
	Unknown() string
	SessionClosed() string
	SessionExpired() string
	ErrorText(err error) string
}

// TextComposer is the default plain-text composer, Spanish-first to match the
// command vocabulary.
type TextComposer struct{}

func NewTextComposer() *TextComposer {
	return &TextComposer{}
}

const helpText = "Comandos:\n" +
	"  + <monto> <cuenta> <categoria> <detalle>  registrar ingreso\n" +
	"  - <monto> <cuenta> <categoria> <detalle>  registrar egreso\n" +
	"  t <monto> <origen> <destino> <detalle>    transferir entre cuentas\n" +
	"  ayuda                                     ver esta ayuda\n" +
	"Ejemplo: - 25.50 1 5 taxi"

func (c *TextComposer) Greeting() string {
	return "¡Hola! Soy tu asistente de finanzas.\n" + helpText
}

func (c *TextComposer) Help() string {
	return helpText
}

func (c *TextComposer) LinkInstructions() string {
	return "Este número no está vinculado a ninguna cuenta. Vinculalo desde la aplicación y después escribime de nuevo."
}

func (c *TextComposer) OTPSent() string {
	return "Te enviamos un código de verificación. Ingresalo en la aplicación para completar la vinculación."
}

func (c *TextComposer) OTPCode(code string) string {
	return fmt.Sprintf("Tu código de verificación es %s. Vence en unos minutos y solo sirve una vez.", code)
}

func (c *TextComposer) MovementConfirmation(m *models.Movement, balance decimal.Decimal) string {
	verb := "Ingreso"
	if m.Type == models.MovementTypeExpense {
		verb = "Egreso"
	}
	return fmt.Sprintf("%s de %s registrado en la cuenta %d (%s). Saldo: %s. ¿Algo más?",
		verb, m.Amount.StringFixed(2), m.AccountID, m.Memo, balance.StringFixed(2))
}

func (c *TextComposer) DuplicateNotice(m *models.Movement) string {
	return fmt.Sprintf("Ese mensaje ya fue procesado: %s por %s en la cuenta %d. No se registró de nuevo.",
		m.Memo, m.Amount.StringFixed(2), m.AccountID)
}

func (c *TextComposer) TransferConfirmation(amount decimal.Decimal, srcID, dstID int64, srcBalance, dstBalance decimal.Decimal) string {
	return fmt.Sprintf("Transferencia de %s de la cuenta %d a la %d realizada. Saldos: %s / %s. ¿Algo más?",
		amount.StringFixed(2), srcID, dstID, srcBalance.StringFixed(2), dstBalance.StringFixed(2))
}

func (c *TextComposer) ContinuePrompt() string {
	return "Te escucho. Mandame el próximo movimiento o escribí \"ayuda\"."
}

func (c *TextComposer) Unknown() string {
	return "No entendí ese mensaje. Escribí \"ayuda\" para ver los comandos."
}

func (c *TextComposer) SessionClosed() string {
	return "¡Listo! Cualquier cosa me escribís de nuevo."
}

func (c *TextComposer) SessionExpired() string {
	return "Cierro la conversación por inactividad. Escribime cuando quieras registrar algo más."
}

func (c *TextComposer) ErrorText(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return "El monto tiene que ser positivo, con dos decimales como máximo."
	case errors.Is(err, ErrAccountNotFound):
		return "No encontré esa cuenta. Revisá el número e intentá de nuevo."
	case errors.Is(err, ErrAccountInactive):
		return "Esa cuenta está inactiva."
	case errors.Is(err, ErrCategoryNotFound):
		return "No encontré esa categoría. Revisá el número e intentá de nuevo."
	case errors.Is(err, ErrCategoryDirection):
		return "Esa categoría no corresponde a ese tipo de movimiento."
	case errors.Is(err, ErrSubcategoryNotFound), errors.Is(err, ErrSubcategoryMismatch):
		return "Esa subcategoría no corresponde a la categoría indicada."
	case errors.Is(err, ErrSameAccount):
		return "La cuenta de origen y la de destino tienen que ser distintas."
	case errors.Is(err, ErrCurrencyMismatch):
		return "Las dos cuentas tienen que estar en la misma moneda."
	default:
		return "Algo salió mal de nuestro lado. Intentá de nuevo en un rato."
	}
}
