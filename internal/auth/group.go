package auth

import "strconv"

// GroupID 是用户组（chii_usergroup.usr_grp_id），权限按组查询。
type GroupID int64

const (
	GroupUnknown        GroupID = 0
	GroupAdmin          GroupID = 1
	GroupBangumiAdmin   GroupID = 2
	GroupWindowAdmin    GroupID = 3
	GroupQuite          GroupID = 4 // 禁言
	GroupBanned         GroupID = 5
	GroupReserved6      GroupID = 6
	GroupReserved7      GroupID = 7
	GroupCharacterAdmin GroupID = 8
	GroupWikiAdmin      GroupID = 9
	GroupNormal         GroupID = 10
	GroupWikiEditor     GroupID = 11
)

var groupNames = map[GroupID]string{
	GroupUnknown:        "unknown",
	GroupAdmin:          "admin",
	GroupBangumiAdmin:   "bangumi_admin",
	GroupWindowAdmin:    "window_admin",
	GroupQuite:          "quite",
	GroupBanned:         "banned",
	GroupReserved6:      "reserved_6",
	GroupReserved7:      "reserved_7",
	GroupCharacterAdmin: "character_admin",
	GroupWikiAdmin:      "wiki_admin",
	GroupNormal:         "normal",
	GroupWikiEditor:     "wiki_editor",
}

func (g GroupID) String() string {
	if s, ok := groupNames[g]; ok {
		return s
	}
	return "group_" + strconv.FormatInt(int64(g), 10)
}

// Known 报告 g 是否属于固定的用户组枚举。
func (g GroupID) Known() bool {
	_, ok := groupNames[g]
	return ok
}
