package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// 自定义校验标签
const (
	moneyTag    = "money"
	notBlankTag = "notblank"
)

// 非负金额，最多两位小数
var moneyPattern = regexp.MustCompile(`^\d{1,10}(\.\d{1,2})?$`)

var translator ut.Translator

// IsMoney 判断字符串是否为合法金额
func IsMoney(s string) bool {
	return moneyPattern.MatchString(strings.TrimSpace(s))
}

// Register 将自定义校验器注册到 gin 的绑定引擎
// 需在路由初始化前调用
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 绑定引擎不是 validator/v10")
	}
	return Setup(v)
}

// Setup 在指定 validator 实例上注册标签名、自定义规则与英文翻译
func Setup(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	if err := v.RegisterValidation(moneyTag, moneyValidation); err != nil {
		return err
	}
	if err := v.RegisterValidation(notBlankTag, notBlankValidation); err != nil {
		return err
	}

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
		return err
	}

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{moneyTag, notBlankTag} {
		if err := v.RegisterTranslation(tag, translator, registerFn, translateCustom); err != nil {
			return err
		}
	}
	return nil
}

// Describe 将绑定错误转为可读的字段说明，用于响应 details
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || translator == nil {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return strings.Join(msgs, "; ")
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case moneyTag:
		return fe.Field() + " must be a non-negative amount with at most 2 decimals"
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	default:
		return fe.Error()
	}
}

func moneyValidation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return IsMoney(s)
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}
