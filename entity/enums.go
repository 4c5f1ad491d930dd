/*
 * Copyright 2025 DeadNord.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package entity

import "github.com/DeadNord/shop-server/types"

// Role is the access role of a user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

var _ types.BaseEnum = Role("")

func ParseRole(s string) (Role, bool) { return types.ParseEnum(s, RoleAdmin, RoleCustomer) }

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// OwnerType tells which kind of entity owns a wallet.
type OwnerType string

const (
	OwnerUser OwnerType = "USER"
	OwnerShop OwnerType = "SHOP"
)

func ParseOwnerType(s string) (OwnerType, bool) { return types.ParseEnum(s, OwnerUser, OwnerShop) }

func (o OwnerType) String() string { return string(o) }

func (o OwnerType) IsValid() bool {
	_, ok := ParseOwnerType(string(o))
	return ok
}

// ProductName is the closed set of products a shop can sell.
type ProductName string

const (
	ProductWidget   ProductName = "widget"
	ProductGadget   ProductName = "gadget"
	ProductGizmo    ProductName = "gizmo"
	ProductSprocket ProductName = "sprocket"
)

// ProductNames returns every product name.
func ProductNames() []ProductName {
	return []ProductName{ProductWidget, ProductGadget, ProductGizmo, ProductSprocket}
}

func ParseProductName(s string) (ProductName, bool) { return types.ParseEnum(s, ProductNames()...) }

func (p ProductName) String() string { return string(p) }

func (p ProductName) IsValid() bool {
	_, ok := ParseProductName(string(p))
	return ok
}
