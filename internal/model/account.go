package model

import "time"

// Account represents a player account as stored in the `accounts` table.
// The GameID is the player's external 8-digit numeric handle; it is what
// players type into the in-game client and is unique across accounts.
// Balance is held in whole currency units and is only ever mutated by the
// seat allocator (debit) and the admin top-up endpoint (credit).
//
// Fields:
//  ID           – primary key identifier of the account.
//  GameID       – unique 8-digit external handle.
//  Nickname     – display name shown on the lobby roster.
//  Phone        – contact handle used during registration.
//  PasswordHash – bcrypt hashed password.
//  Role         – PLAYER or ADMIN.
//  Balance      – current balance in whole currency units; never negative.
//  Blocked      – when true the account may not log in or join events.
//  CreatedAt    – timestamp of creation.
type Account struct {
	ID           uint64    // accounts.id
	GameID       string    // accounts.game_id
	Nickname     string    // accounts.nickname
	Phone        string    // accounts.phone
	PasswordHash string    // accounts.password_hash
	Role         string    // accounts.role
	Balance      int64     // accounts.balance
	Blocked      bool      // accounts.blocked
	CreatedAt    time.Time // accounts.created_at
}
