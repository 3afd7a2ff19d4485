package autosave

import (
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"

	pkgerrors "lms-progress/pkg/errors"
)

// 支持行内编辑的进度字段，与 progress_records 列名一致
const (
	FieldCompletedSessions = "completed_sessions"
	FieldProjectsSubmitted = "projects_submitted"
	FieldProjectLinks      = "project_links"
)

var validate = validator.New()

func invalid(format string, args ...interface{}) error {
	return pkgerrors.New(pkgerrors.KindValidation, fmt.Sprintf(format, args...))
}

// SessionsValidator 已完成课时须在 [0, required] 范围内
func SessionsValidator(required int) Validator {
	return func(value interface{}) error {
		n, ok := value.(int)
		if !ok {
			return invalid("completed_sessions 必须为整数")
		}
		if err := validate.Var(n, fmt.Sprintf("gte=0,lte=%d", required)); err != nil {
			return invalid("completed_sessions 必须在 0 到 %d 之间", required)
		}
		return nil
	}
}

// ProjectsValidator 已提交项目数不能为负
func ProjectsValidator() Validator {
	return func(value interface{}) error {
		n, ok := value.(int)
		if !ok {
			return invalid("projects_submitted 必须为整数")
		}
		if err := validate.Var(n, "gte=0"); err != nil {
			return invalid("projects_submitted 不能为负数")
		}
		return nil
	}
}

// LinksValidator 每个项目链接都必须是 http/https 地址
func LinksValidator() Validator {
	return func(value interface{}) error {
		links, ok := value.([]string)
		if !ok {
			return invalid("project_links 必须为字符串数组")
		}
		for i, link := range links {
			if err := ValidateLink(link); err != nil {
				return invalid("project_links[%d]: %s", i, err.Error())
			}
		}
		return nil
	}
}

// ValidateLink 校验单个项目链接
func ValidateLink(link string) error {
	if err := validate.Var(link, "required,http_url"); err != nil {
		return invalid("链接格式无效: %q", link)
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("链接必须以 http:// 或 https:// 开头: %q", link)
	}
	return nil
}

// ProgressValidators 针对某门课程构建进度字段的校验器集合
func ProgressValidators(requiredSessions int) map[string]Validator {
	return map[string]Validator{
		FieldCompletedSessions: SessionsValidator(requiredSessions),
		FieldProjectsSubmitted: ProjectsValidator(),
		FieldProjectLinks:      LinksValidator(),
	}
}
