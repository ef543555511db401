package assemble

import (
	"fmt"

	"github.com/dergolc3/lc3/internal/token"
)

// AssemblerError is implemented by every diagnostic the two passes
// produce, giving callers uniform access to where in the source it
// occurred regardless of its concrete kind.
type AssemblerError interface {
	error
	GetPosition() token.Cursor
}

type UnknownMnemonicError struct {
	Position token.Cursor
	Received string
}

func (err *UnknownMnemonicError) GetPosition() token.Cursor { return err.Position }

func (err *UnknownMnemonicError) Error() string {
	return fmt.Sprintf("%02d:%02d: unknown instruction or pseudo-op '%s'",
		err.Position.Row, err.Position.Col, err.Received)
}

type InvalidUsageError struct {
	Position token.Cursor
	Mnemonic string
}

func (err *InvalidUsageError) GetPosition() token.Cursor { return err.Position }

func (err *InvalidUsageError) Error() string {
	return fmt.Sprintf("%02d:%02d: invalid operands for '%s'",
		err.Position.Row, err.Position.Col, err.Mnemonic)
}

type InvalidOperandCountError struct {
	Position token.Cursor
	Mnemonic string
	Required int
	Received int
}

func (err *InvalidOperandCountError) GetPosition() token.Cursor { return err.Position }

func (err *InvalidOperandCountError) Error() string {
	return fmt.Sprintf("%02d:%02d: '%s' takes %d operand(s), got %d",
		err.Position.Row, err.Position.Col, err.Mnemonic, err.Required, err.Received)
}

type OversizedLiteralError struct {
	Position token.Cursor
	Width    uint8
	Received int64
}

func (err *OversizedLiteralError) GetPosition() token.Cursor { return err.Position }

func (err *OversizedLiteralError) Error() string {
	return fmt.Sprintf("%02d:%02d: value %d does not fit in %d bits",
		err.Position.Row, err.Position.Col, err.Received, err.Width)
}

type RedeclaredLabelError struct {
	Position token.Cursor
	Received string
}

func (err *RedeclaredLabelError) GetPosition() token.Cursor { return err.Position }

func (err *RedeclaredLabelError) Error() string {
	return fmt.Sprintf("%02d:%02d: redeclaration of label '%s'",
		err.Position.Row, err.Position.Col, err.Received)
}

type UnknownLabelError struct {
	Position token.Cursor
	Received string
}

func (err *UnknownLabelError) GetPosition() token.Cursor { return err.Position }

func (err *UnknownLabelError) Error() string {
	return fmt.Sprintf("%02d:%02d: unknown label '%s'",
		err.Position.Row, err.Position.Col, err.Received)
}

type MissingOrigError struct {
	Position token.Cursor
}

func (err *MissingOrigError) GetPosition() token.Cursor { return err.Position }

func (err *MissingOrigError) Error() string {
	return fmt.Sprintf("%02d:%02d: statement precedes the first .ORIG",
		err.Position.Row, err.Position.Col)
}

type UnknownPseudoOpError struct {
	Position token.Cursor
	Received string
}

func (err *UnknownPseudoOpError) GetPosition() token.Cursor { return err.Position }

func (err *UnknownPseudoOpError) Error() string {
	return fmt.Sprintf("%02d:%02d: unknown pseudo-op '%s'",
		err.Position.Row, err.Position.Col, err.Received)
}

type EmptyBlockError struct {
	Position token.Cursor
}

func (err *EmptyBlockError) GetPosition() token.Cursor { return err.Position }

func (err *EmptyBlockError) Error() string {
	return fmt.Sprintf("%02d:%02d: .BLKW requires a size of at least 1",
		err.Position.Row, err.Position.Col)
}
