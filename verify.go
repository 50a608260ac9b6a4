package gortl

import (
	"tlog.app/go/errors"
)

var (
	ErrNonWideningExtension = errors.New("extension must increase bitwidth of operand")
	ErrExtractOutOfRange    = errors.New("from bit too large for input")
	ErrNoOperands           = errors.New("requires 1 or more args")
	ErrZeroWidth            = errors.New("zero bit width")
	ErrWidthMismatch        = errors.New("operand widths differ")
)

// VerifyExtend checks a zero or sign extension from srcWidth to dstWidth.
func VerifyExtend(srcWidth, dstWidth uint) error {
	if err := VerifyZeroWidth(srcWidth); err != nil {
		return err
	}
	if srcWidth >= dstWidth {
		return errors.Wrap(ErrNonWideningExtension, "%d to %d bits", srcWidth, dstWidth)
	}
	return nil
}

// VerifyExtract checks that bits [low, low+width) lie inside the input.
func VerifyExtract(srcWidth, low, width uint) error {
	if err := VerifyZeroWidth(width); err != nil {
		return err
	}
	if low >= srcWidth || srcWidth-low < width {
		return errors.Wrap(ErrExtractOutOfRange, "%d bits from bit %d of %d", width, low, srcWidth)
	}
	return nil
}

func VerifyVariadic(kind int, n int) error {
	if n < 1 {
		return errors.Wrap(ErrNoOperands, "%v", KindName(kind))
	}
	return nil
}

func VerifyZeroWidth(width uint) error {
	if width == 0 {
		return ErrZeroWidth
	}
	return nil
}
