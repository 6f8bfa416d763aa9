package handler

import (
	accounthandler "family-registry-go/internal/transport/httpserver/handler/accounts"
	adminhandler "family-registry-go/internal/transport/httpserver/handler/admin"
	commonhandler "family-registry-go/internal/transport/httpserver/handler/common"
	familyhandler "family-registry-go/internal/transport/httpserver/handler/families"
)

type Handlers struct {
	Common   *commonhandler.Handlers
	Accounts *accounthandler.Handlers
	Families *familyhandler.Handlers
	Admin    *adminhandler.Handlers
}
