package account

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// 入力検証エラーのメッセージ。
const (
	msgRequired      = "This field is required."
	msgInvalidEmail  = "Enter a valid email address."
	msgTooLong       = "Ensure this field has no more than 30 characters."
	msgInvalidValue  = "Invalid value."
	msgEmailTaken    = "Email Already Present"
	msgPasswordMatch = "Password and Confirm Password Not Matching"
)

// lettersMessages は letters ルール違反時のフィールド別メッセージ。
var lettersMessages = map[string]string{
	"first_name": "First Name cannot Contain Numbers or Space",
	"last_name":  "Last Name cannot Contain Numbers or Space",
}

// FieldErrors はフィールド名からエラーメッセージ一覧への対応。
type FieldErrors map[string][]string

// Add はフィールドにメッセージを追加する。
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

var registerOnce sync.Once

// RegisterValidations はGinのバリデータに独自ルールを登録する。
// 何度呼んでも登録は一度だけ行われる。
func RegisterValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// エラーのフィールド名をリクエストのキー名に揃える
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("letters", isLetters)
	})
}

// isLetters は値が1文字以上の文字（数字や空白を含まない）のみで構成されるかを判定する。
func isLetters(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// registerRequest はユーザー登録リクエスト。
type registerRequest struct {
	FirstName       string `json:"first_name" form:"first_name" binding:"required,max=30,letters"`
	LastName        string `json:"last_name" form:"last_name" binding:"required,max=30,letters"`
	Email           string `json:"email" form:"email" binding:"required,max=30,email"`
	Password        string `json:"password" form:"password" binding:"required,max=30"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required,max=30"`
}

// loginRequest はログインリクエスト。
type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,max=30,email"`
	Password string `json:"password" form:"password" binding:"required,max=30"`
}

// translateBindError はバインドエラーをフィールド別メッセージに変換する。
// 検証エラー以外（JSONの構文エラー等）の場合は ok=false を返す。
func translateBindError(err error) (FieldErrors, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fe := FieldErrors{}
	for _, v := range verrs {
		fe.Add(v.Field(), messageFor(v))
	}
	return fe, true
}

// messageFor は検証エラー1件のメッセージを返す。
func messageFor(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "max":
		return msgTooLong
	case "letters":
		if m, ok := lettersMessages[v.Field()]; ok {
			return m
		}
	}
	return msgInvalidValue
}
