package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PanicError はリカバリしたパニックを表すエラーです。
// gonum の mat パッケージは形状の誤りをパニックで通知するため、予測経路では
// それを PanicError に変換し、サーバープロセスを落とさずにエラーとして返します。
type PanicError struct {
	// PanicValue は panic() に渡された値
	PanicValue interface{}

	// StackTrace はパニック発生時のスタックトレース
	StackTrace string

	// Operation はリカバリした操作（例: "Scorer.Predict"）
	Operation string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("housing: panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap はパニック値が error の場合にそれを返します。
func (e *PanicError) Unwrap() error {
	if err, ok := e.PanicValue.(error); ok {
		return err
	}
	return nil
}

// String はスタックトレースを含む詳細を返します。
func (e *PanicError) String() string {
	return fmt.Sprintf("%s\nStack trace:\n%s", e.Error(), e.StackTrace)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Interface("panic", e.PanicValue).
		Str("type", "PanicError")
}

// NewPanicError は現在のスタックを記録した PanicError を作成します。
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover は defer で使用し、パニックを *err に代入するエラーへ変換します。
//
// 使用例:
//
//	func (s *Scorer) predict(X mat.Matrix) (_ []float64, err error) {
//	    defer errors.Recover(&err, "Scorer.predict")
//	    ...
//	}
//
// 既にエラーがある場合は、そのエラーをパニック情報でラップします。
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = errors.Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute は fn を実行し、パニックをエラーに変換して返します。
//
//	err := errors.SafeExecute("Scorer.Predict", func() error {
//	    yHat, perr = model.PredictSlice(bundle.Model, Xm)
//	    return perr
//	})
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
