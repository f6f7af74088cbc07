package auth

import (
	"errors"
	"fmt"
	"testing"
)

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrDuplicateUsername, "اسم المستخدم موجود بالفعل"},
		{ErrInvalidCredentials, "اسم المستخدم أو كلمة المرور غير صحيحة"},
		{ErrAccountDisabled, "الحساب غير مفعل"},
		{ErrProtectedAccount, "لا يمكن حذف المدير الرئيسي"},
		{ErrNothingToUpdate, "لا توجد تحديثات"},
		{ErrPermissionDenied, "ليس لديك صلاحية لهذا الإجراء"},
		// Wrapped sentinels translate the same as bare ones.
		{fmtErr(ErrPermissionDenied, "delete on users"), "ليس لديك صلاحية لهذا الإجراء"},
		{fmt.Errorf("handler: %w", ErrInvalidToken), "انتهت صلاحية الجلسة"},
		// Anything unrecognized collapses into the generic message.
		{errors.New("pq: connection refused"), "حدث خطأ غير متوقع"},
		{nil, "حدث خطأ غير متوقع"},
	}
	for _, tc := range cases {
		if got := UserMessage(tc.err); got != tc.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
