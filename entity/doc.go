// Package entity defines the persisted documents of the shop (users, shops
// and wallets), their closed value sets and the field registry of each type.
package entity
