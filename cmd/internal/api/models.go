package api

import "relay/cmd/internal/store"

type registerRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID store.UserID `json:"user_id"`
}

type loginRequest struct {
	UserID   store.UserID `json:"user_id"`
	Password string       `json:"password"`
}

type loginResponse struct {
	SessionID int64        `json:"session_id"`
	UserID    store.UserID `json:"user_id"`
}

type createChatRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createChatResponse struct {
	ChatID store.ChatID `json:"chat_id"`
}

type inviteRequest struct {
	UserID store.UserID `json:"user_id"`
	ChatID store.ChatID `json:"chat_id"`
}

type messageRequest struct {
	ChatID  store.ChatID `json:"chat_id"`
	Content string       `json:"content"`
}

type activityRequest struct {
	UserID store.UserID `json:"user_id"`
}

type activityResponse struct {
	Active bool `json:"active"`
}

type usersResponse struct {
	Users []store.User `json:"users"`
}

type chatsResponse struct {
	Chats []store.Chat `json:"chats"`
}

type messagesResponse struct {
	Messages []store.Message `json:"messages"`
}

type devicesResponse struct {
	Devices []store.Device `json:"devices"`
}
