package permission

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

var (
	nodeCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	leafCleaner = regexp.MustCompile(`[^a-z0-9-]+`)
)

var readActions = map[string]bool{"read": true, "view": true, "list": true, "query": true}

// DataScopes sufijos de permisos de alcance de datos.
var DataScopes = []string{"all", "department", "self"}

// AppCode devuelve el segmento siguiente a /apps/ en path ("" si no aplica).
func AppCode(path string) string {
	var parts []string
	for _, p := range strings.Split(strings.TrimSpace(path), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) >= 2 && parts[0] == "apps" {
		return parts[1]
	}
	return ""
}

// NodeCode limpia meta.node: solo [a-zA-Z0-9_-], sin "_-" en los extremos, en minúsculas.
func NodeCode(node string) string {
	clean := nodeCleaner.ReplaceAllString(norm.NFKC.String(node), "")
	return strings.ToLower(strings.Trim(clean, "_-"))
}

// MenuCode deriva "{app}:{node o último segmento}:view" para un menú hoja.
func MenuCode(path, metaNode string) (string, bool) {
	app := AppCode(path)
	if app == "" {
		return "", false
	}
	if node := NodeCode(metaNode); node != "" {
		return app + ":" + node + ":view", true
	}
	segments := strings.Split(strings.TrimRight(path, "/"), "/")
	leaf := strings.ToLower(strings.TrimSpace(norm.NFKC.String(segments[len(segments)-1])))
	if leaf == "" || strings.HasPrefix(leaf, ":") {
		return "", false
	}
	resource := strings.Trim(leafCleaner.ReplaceAllString(leaf, "-"), "-")
	if resource == "" {
		return "", false
	}
	return app + ":" + resource + ":view", true
}

// DataScopeCodes deriva {resource}:data:{all,department,self} de códigos de lectura.
func DataScopeCodes(codes []string) []string {
	out := map[string]struct{}{}
	for _, code := range codes {
		i := strings.LastIndex(code, ":")
		if i < 0 {
			continue
		}
		left, action := code[:i], code[i+1:]
		if !readActions[strings.ToLower(action)] {
			continue
		}
		for _, scope := range DataScopes {
			out[left+":data:"+scope] = struct{}{}
		}
	}
	return sortedKeys(out)
}

// Split separa un código en (resource, action). Sin ":" la acción es "read".
func Split(code string) (resource, action string) {
	i := strings.LastIndex(code, ":")
	if i < 0 {
		return strings.ReplaceAll(code, "-", "_"), "read"
	}
	left, act := code[:i], code[i+1:]
	resource = strings.NewReplacer("-", "_", ":", "_").Replace(left)
	return resource, strings.ReplaceAll(act, "-", "_")
}

// InferType clasifica un código como function, data o field.
func InferType(code string) string {
	lower := strings.ToLower(code)
	switch {
	case strings.HasSuffix(lower, ":amount") || strings.Contains(lower, ":view:amount"):
		return entity.PermissionField
	case strings.Contains(lower, ":data:") || strings.Contains(lower, ":scope:") || strings.HasSuffix(lower, ":scope"):
		return entity.PermissionData
	default:
		return entity.PermissionFunction
	}
}

var actionText = map[string]string{
	"create":  "创建",
	"read":    "查看",
	"view":    "查看",
	"update":  "编辑",
	"delete":  "删除",
	"assign":  "分配",
	"approve": "审批",
	"export":  "导出",
	"import":  "导入",
}

var typeText = map[string]string{
	entity.PermissionFunction: "功能",
	entity.PermissionData:     "数据",
	entity.PermissionField:    "字段",
}

// DisplayName "{acción}{recurso}（{tipo}）".
func DisplayName(resource, action, permissionType string) string {
	a, ok := actionText[strings.ToLower(action)]
	if !ok {
		a = action
	}
	t, ok := typeText[permissionType]
	if !ok {
		t = "权限"
	}
	return a + resource + "（" + t + "）"
}

// ManifestCodes permisos declarados en un manifiesto, incluidos los de menu_config (recursivo).
func ManifestCodes(m entity.ApplicationManifest) []string {
	out := map[string]struct{}{}
	for _, c := range m.Permissions {
		if c = strings.TrimSpace(c); c != "" {
			out[c] = struct{}{}
		}
	}
	for _, node := range m.MenuConfig {
		collectMenu(node, out)
	}
	return sortedKeys(out)
}

func collectMenu(node any, out map[string]struct{}) {
	switch n := node.(type) {
	case map[string]any:
		code, _ := n["permission_code"].(string)
		if strings.TrimSpace(code) == "" {
			code, _ = n["permission"].(string)
		}
		if code = strings.TrimSpace(code); code != "" {
			out[code] = struct{}{}
		}
		if children, ok := n["children"].([]any); ok {
			for _, c := range children {
				collectMenu(c, out)
			}
		}
	case []any:
		for _, c := range n {
			collectMenu(c, out)
		}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build arma la entidad Permission de un código con nombre y tipo derivados.
func Build(tenantID int64, code, description string, isSystem bool) *entity.Permission {
	resource, action := Split(code)
	pt := InferType(code)
	return &entity.Permission{
		TenantID:       tenantID,
		Code:           code,
		Name:           DisplayName(resource, action, pt),
		Resource:       resource,
		Action:         action,
		PermissionType: pt,
		Description:    description,
		IsSystem:       isSystem,
	}
}

// IsRead indica si la acción del código es de lectura (read, view, list, query).
func IsRead(code string) bool {
	i := strings.LastIndex(code, ":")
	if i < 0 {
		return false
	}
	return readActions[strings.ToLower(code[i+1:])]
}
