package auth

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// PermissionFlag 是已知的权限项；存储中出现的未知键会被忽略。
type PermissionFlag uint8

const (
	PermBanPost PermissionFlag = iota
	PermBanVisit
	PermUserBan
	PermUserList
	PermManageUser
	PermManageUserGroup
	PermManageUserPhoto
	PermManageTopicState
	PermManageReport
	PermManageApp
	PermAppErase
	PermReport
	PermSubjectEdit
	PermSubjectLock
	PermSubjectRefresh
	PermSubjectRelated
	PermSubjectMerge
	PermSubjectErase
	PermSubjectCoverLock
	PermSubjectCoverErase
	PermDoujinSubjectErase
	PermDoujinSubjectLock
	PermMonoEdit
	PermMonoLock
	PermMonoMerge
	PermMonoErase
	PermEpEdit
	PermEpMove
	PermEpLock
	PermEpErase

	permFlagCount
)

var permFlagNames = [permFlagCount]string{
	PermBanPost:            "ban_post",
	PermBanVisit:           "ban_visit",
	PermUserBan:            "user_ban",
	PermUserList:           "user_list",
	PermManageUser:         "manage_user",
	PermManageUserGroup:    "manage_user_group",
	PermManageUserPhoto:    "manage_user_photo",
	PermManageTopicState:   "manage_topic_state",
	PermManageReport:       "manage_report",
	PermManageApp:          "manage_app",
	PermAppErase:           "app_erase",
	PermReport:             "report",
	PermSubjectEdit:        "subject_edit",
	PermSubjectLock:        "subject_lock",
	PermSubjectRefresh:     "subject_refresh",
	PermSubjectRelated:     "subject_related",
	PermSubjectMerge:       "subject_merge",
	PermSubjectErase:       "subject_erase",
	PermSubjectCoverLock:   "subject_cover_lock",
	PermSubjectCoverErase:  "subject_cover_erase",
	PermDoujinSubjectErase: "doujin_subject_erase",
	PermDoujinSubjectLock:  "doujin_subject_lock",
	PermMonoEdit:           "mono_edit",
	PermMonoLock:           "mono_lock",
	PermMonoMerge:          "mono_merge",
	PermMonoErase:          "mono_erase",
	PermEpEdit:             "ep_edit",
	PermEpMove:             "ep_move",
	PermEpLock:             "ep_lock",
	PermEpErase:            "ep_erase",
}

var permFlagByName = func() map[string]PermissionFlag {
	m := make(map[string]PermissionFlag, permFlagCount)
	for i, name := range permFlagNames {
		m[name] = PermissionFlag(i)
	}
	return m
}()

func (f PermissionFlag) String() string {
	if f < permFlagCount {
		return permFlagNames[f]
	}
	return "perm_" + strconv.Itoa(int(f))
}

// ParsePermissionFlag 按存储中的键名查找权限项。
func ParsePermissionFlag(name string) (PermissionFlag, bool) {
	f, ok := permFlagByName[name]
	return f, ok
}

// Permission 是一组权限项的不可变集合；零值表示没有任何权限项。
type Permission struct {
	set uint64
}

func NewPermission(flags ...PermissionFlag) Permission {
	var p Permission
	for _, f := range flags {
		if f < permFlagCount {
			p.set |= 1 << f
		}
	}
	return p
}

// DefaultPermission 在用户组没有权限记录时使用：禁止发帖与访问，不授予任何能力。
func DefaultPermission() Permission {
	return NewPermission(PermBanPost, PermBanVisit)
}

func (p Permission) Has(f PermissionFlag) bool {
	if f >= permFlagCount {
		return false
	}
	return p.set&(1<<f) != 0
}

func (p Permission) IsEmpty() bool { return p.set == 0 }

// Flags 按枚举顺序返回已设置的权限项。
func (p Permission) Flags() []PermissionFlag {
	var out []PermissionFlag
	for f := PermissionFlag(0); f < permFlagCount; f++ {
		if p.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Map 返回新的 flag 名 → true 映射，调用方修改它不会影响 p。
func (p Permission) Map() map[string]bool {
	out := make(map[string]bool)
	for _, f := range p.Flags() {
		out[f.String()] = true
	}
	return out
}

func (p Permission) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

func (p *Permission) UnmarshalJSON(b []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out Permission
	for name, v := range m {
		if f, ok := ParsePermissionFlag(name); ok && v {
			out.set |= 1 << f
		}
	}
	*p = out
	return nil
}

func (p Permission) String() string {
	names := make([]string, 0)
	for _, f := range p.Flags() {
		names = append(names, f.String())
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ",") + "}"
}

var errPermissionBlobMalformed = errors.New("权限数据格式不合法")

// DecodePermission 解析 usr_grp_perm 中的序列化权限。
//
// 支持 PHP serialize 的关联数组（历史数据）与 JSON 对象两种格式。只有字符串 "1" 视为 true，
// 其余取值（包括整数 1 与布尔 true）都视为 false；未知键忽略。
// ok=false 表示 blob 为空，调用方应使用 DefaultPermission。
func DecodePermission(blob string) (p Permission, ok bool, err error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return Permission{}, false, nil
	}

	var entries map[string]phpValue
	switch {
	case strings.HasPrefix(blob, "{"):
		if !gjson.Valid(blob) {
			return Permission{}, false, errPermissionBlobMalformed
		}
		entries = make(map[string]phpValue)
		gjson.Parse(blob).ForEach(func(k, v gjson.Result) bool {
			if v.Type == gjson.String {
				entries[k.String()] = phpValue{kind: 's', raw: v.Str}
			} else {
				entries[k.String()] = phpValue{kind: 'j', raw: v.Raw}
			}
			return true
		})
	case strings.HasPrefix(blob, "a:"):
		entries, err = decodePHPArray(blob)
		if err != nil {
			return Permission{}, false, err
		}
	default:
		return Permission{}, false, errPermissionBlobMalformed
	}

	for key, v := range entries {
		f, known := ParsePermissionFlag(key)
		if !known {
			continue
		}
		if v.kind == 's' && v.raw == "1" {
			p.set |= 1 << f
		}
	}
	return p, true, nil
}

type phpValue struct {
	kind byte
	raw  string
}

type phpReader struct {
	s   string
	pos int
}

func (r *phpReader) expect(b byte) error {
	if r.pos >= len(r.s) || r.s[r.pos] != b {
		return fmt.Errorf("%w: 位置 %d 期望 %q", errPermissionBlobMalformed, r.pos, b)
	}
	r.pos++
	return nil
}

func (r *phpReader) until(b byte) (string, error) {
	i := strings.IndexByte(r.s[r.pos:], b)
	if i < 0 {
		return "", fmt.Errorf("%w: 位置 %d 之后缺少 %q", errPermissionBlobMalformed, r.pos, b)
	}
	out := r.s[r.pos : r.pos+i]
	r.pos += i + 1
	return out, nil
}

func (r *phpReader) value() (phpValue, error) {
	if r.pos >= len(r.s) {
		return phpValue{}, fmt.Errorf("%w: 意外结束", errPermissionBlobMalformed)
	}
	kind := r.s[r.pos]
	r.pos++
	if kind == 'N' {
		return phpValue{kind: 'N'}, r.expect(';')
	}
	if err := r.expect(':'); err != nil {
		return phpValue{}, err
	}
	switch kind {
	case 's':
		lenText, err := r.until(':')
		if err != nil {
			return phpValue{}, err
		}
		n, err := strconv.Atoi(lenText)
		if err != nil || n < 0 {
			return phpValue{}, fmt.Errorf("%w: 字符串长度 %q", errPermissionBlobMalformed, lenText)
		}
		if err := r.expect('"'); err != nil {
			return phpValue{}, err
		}
		if r.pos+n > len(r.s) {
			return phpValue{}, fmt.Errorf("%w: 字符串越界", errPermissionBlobMalformed)
		}
		raw := r.s[r.pos : r.pos+n]
		r.pos += n
		if err := r.expect('"'); err != nil {
			return phpValue{}, err
		}
		return phpValue{kind: 's', raw: raw}, r.expect(';')
	case 'i', 'b', 'd':
		raw, err := r.until(';')
		if err != nil {
			return phpValue{}, err
		}
		return phpValue{kind: kind, raw: raw}, nil
	default:
		return phpValue{}, fmt.Errorf("%w: 不支持的类型 %q", errPermissionBlobMalformed, kind)
	}
}

func decodePHPArray(blob string) (map[string]phpValue, error) {
	r := &phpReader{s: blob}
	if err := r.expect('a'); err != nil {
		return nil, err
	}
	if err := r.expect(':'); err != nil {
		return nil, err
	}
	countText, err := r.until(':')
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(countText)
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: 数组长度 %q", errPermissionBlobMalformed, countText)
	}
	if err := r.expect('{'); err != nil {
		return nil, err
	}
	out := make(map[string]phpValue, count)
	for i := 0; i < count; i++ {
		k, err := r.value()
		if err != nil {
			return nil, err
		}
		if k.kind != 's' && k.kind != 'i' {
			return nil, fmt.Errorf("%w: 键类型 %q", errPermissionBlobMalformed, k.kind)
		}
		v, err := r.value()
		if err != nil {
			return nil, err
		}
		out[k.raw] = v
	}
	if err := r.expect('}'); err != nil {
		return nil, err
	}
	return out, nil
}
