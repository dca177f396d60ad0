package services

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
)

// 资源操作
const (
	ActionRead         = "read"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionUpdateStatus = "update_status"
	ActionReschedule   = "reschedule"
)

// 管理员可以对任何资源执行任何操作；所有者可以操作自己的资源。资源状态(如已结束)由各服务自行校验
const authorizationModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = role, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (r.sub.Role == p.role || (p.role == "owner" && isOwner(r.sub.ID, r.obj.OwnerID))) && (p.act == "*" || r.act == p.act)
`

var defaultPolicies = [][]string{
	{"admin", "*"},
	{"owner", ActionRead},
	{"owner", ActionUpdate},
	{"owner", ActionUpdateStatus},
	{"owner", ActionReschedule},
	{"owner", ActionDelete},
}

// Actor 发起操作的用户
type Actor struct {
	ID   uint
	Role string
}

// Resource 被操作的资源
type Resource struct {
	OwnerID uint
}

// InterfaceAuthorizationService 授权判断接口
type InterfaceAuthorizationService interface {
	CanActOn(actor Actor, resource Resource, action string) bool
}

// AuthorizationService 基于 casbin 的授权服务
type AuthorizationService struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizationService 创建授权服务并加载默认策略
func NewAuthorizationService() (*AuthorizationService, error) {
	m, err := model.NewModelFromString(authorizationModel)
	if err != nil {
		return nil, fmt.Errorf("加载授权模型失败: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("创建授权执行器失败: %w", err)
	}
	enforcer.AddFunction("isOwner", isOwnerFunc)

	if _, err := enforcer.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("加载授权策略失败: %w", err)
	}

	return &AuthorizationService{enforcer: enforcer}, nil
}

// 1 CanActOn 判断 actor 是否可以对 resource 执行 action，执行出错时拒绝
func (s *AuthorizationService) CanActOn(actor Actor, resource Resource, action string) bool {
	allowed, err := s.enforcer.Enforce(actor, resource, action)
	if err != nil {
		Logger.Error("授权判断失败: actor=%d action=%s err=%v", actor.ID, action, err)
		return false
	}
	return allowed
}

// isOwnerFunc 比较两个用户ID
func isOwnerFunc(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("isOwner requires exactly 2 arguments")
	}
	actorID, ok := toUint(args[0])
	if !ok {
		return false, nil
	}
	ownerID, ok := toUint(args[1])
	if !ok {
		return false, nil
	}
	return actorID != 0 && actorID == ownerID, nil
}

func toUint(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case int:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case float64:
		return uint64(n), n >= 0
	}
	return 0, false
}
