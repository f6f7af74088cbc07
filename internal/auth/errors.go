package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("duplicate username")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrProtectedAccount   = errors.New("protected account")
	ErrNothingToUpdate    = errors.New("nothing to update")
	ErrAuthRequired       = errors.New("authentication required")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidToken       = errors.New("invalid session token")
)

func fmtErr(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// The surrounding application is Arabic-language; these match the wording
// its screens display inline.
var userMessages = []struct {
	err error
	msg string
}{
	{ErrDuplicateUsername, "اسم المستخدم موجود بالفعل"},
	{ErrInvalidCredentials, "اسم المستخدم أو كلمة المرور غير صحيحة"},
	{ErrAccountDisabled, "الحساب غير مفعل"},
	{ErrProtectedAccount, "لا يمكن حذف المدير الرئيسي"},
	{ErrNothingToUpdate, "لا توجد تحديثات"},
	{ErrAuthRequired, "يجب تسجيل الدخول أولاً"},
	{ErrPermissionDenied, "ليس لديك صلاحية لهذا الإجراء"},
	{ErrInvalidToken, "انتهت صلاحية الجلسة"},
	{ErrNotFound, "السجل غير موجود"},
}

// UserMessage converts a service error into the Arabic message the UI
// shows. Unknown errors collapse into a generic failure message so storage
// details never leak to the screen.
func UserMessage(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "حدث خطأ غير متوقع"
}
