// pkg/registry/defaults.go
package registry

const defaultVersion = "1.0.0"

// DefaultScreens is the built-in screen table used when no registry file is
// configured.
func DefaultScreens() *ScreenRegistry {
	return &ScreenRegistry{
		Version:     defaultVersion,
		LastUpdated: "2026-10-01",
		Screens: []Screen{
			// public
			{ID: "login", DisplayName: "Sign in", Portal: "public", Path: "/login"},
			{ID: "home", DisplayName: "Home", Portal: "public", Path: "/", DataPath: "/api/products"},
			{ID: "product-detail", DisplayName: "Product", Portal: "public", Path: "/products/{productId}",
				DataPath: "/api/products/{productId}"},

			// customer
			{ID: "cart", DisplayName: "Cart", Portal: "customer", Path: "/customer/cart",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/", DataPath: "/api/cart", Tags: []string{"cart"}},
			{ID: "favorites", DisplayName: "Favorites", Portal: "customer", Path: "/customer/favorites",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/",
				DataPath: "/api/users/{userId}/favorites", SourceOf: "product-detail"},
			{ID: "gifts", DisplayName: "Gifts", Portal: "customer", Path: "/customer/gifts",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/", DataPath: "/api/gifts"},
			{ID: "vouchers", DisplayName: "Vouchers", Portal: "customer", Path: "/customer/vouchers",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/", DataPath: "/api/vouchers"},
			{ID: "orders", DisplayName: "My orders", Portal: "customer", Path: "/customer/orders",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/", DataPath: "/api/orders"},
			{ID: "track-order", DisplayName: "Track order", Portal: "customer", Path: "/customer/orders/{orderId}/track",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/",
				DataPath: "/api/orders/{orderId}", SourceOf: "orders"},
			{ID: "completed-order", DisplayName: "Completed order", Portal: "customer", Path: "/customer/orders/{orderId}/completed",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/",
				DataPath: "/api/orders/{orderId}", SourceOf: "orders"},
			{ID: "addresses", DisplayName: "Addresses", Portal: "customer", Path: "/customer/addresses",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/", DataPath: "/api/shipping-addresses"},
			{ID: "shipping-address", DisplayName: "New address", Portal: "customer", Path: "/customer/shipping-address",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/", Tags: []string{"form"}},
			{ID: "order-returns", DisplayName: "Returns", Portal: "customer", Path: "/customer/returns/{orderId}",
				RequireAuth: true, Roles: []string{"customer"}, DenyPath: "/", DataPath: "/api/refunds?order_id={orderId}"},

			// seller
			{ID: "signup", DisplayName: "Seller sign up", Portal: "seller", Path: "/signup",
				Flow: "seller", Stage: "credentials", Tags: []string{"form", "registration"}},
			{ID: "create-shop", DisplayName: "Create shop", Portal: "seller", Path: "/seller/create-shop",
				Flow: "seller", Stage: "shop_details", RequireAuth: true, Tags: []string{"form", "registration"}},
			{ID: "seller-product-list", DisplayName: "Products", Portal: "seller", Path: "/seller/seller-product-list",
				Flow: "seller", Stage: "approved", RequireAuth: true, Roles: []string{"seller"},
				DataPath: "/api/shops/{shopId}/products"},
			{ID: "new-product", DisplayName: "New product", Portal: "seller", Path: "/seller/products/new",
				Flow: "seller", Stage: "approved", RequireAuth: true, Roles: []string{"seller"}, Tags: []string{"form"}},
			{ID: "seller-orders", DisplayName: "Shop orders", Portal: "seller", Path: "/seller/orders",
				Flow: "seller", Stage: "approved", RequireAuth: true, Roles: []string{"seller"},
				DataPath: "/api/shops/{shopId}/orders"},
			{ID: "return-approval", DisplayName: "Return approval", Portal: "seller", Path: "/seller/returns/{refundId}",
				Flow: "seller", Stage: "approved", RequireAuth: true, Roles: []string{"seller"},
				DataPath: "/api/refunds/{refundId}", SourceOf: "order-returns"},

			// rider
			{ID: "rider-vehicle-info", DisplayName: "Vehicle information", Portal: "rider", Path: "/rider/register/vehicle-info",
				Flow: "rider", Stage: "vehicle_info", Tags: []string{"form", "registration"}},
			{ID: "rider-credentials", DisplayName: "Account credentials", Portal: "rider", Path: "/rider/register/credentials",
				Flow: "rider", Stage: "credentials", Tags: []string{"form", "registration"}},
			{ID: "rider-profile", DisplayName: "Profile details", Portal: "rider", Path: "/rider/register/profile",
				Flow: "rider", Stage: "profile_details", RequireAuth: true, Tags: []string{"form", "registration"}},
			{ID: "rider-pending-approval", DisplayName: "Pending approval", Portal: "rider", Path: "/rider/register/pending-approval",
				Flow: "rider", Stage: "pending_admin_approval", RequireAuth: true,
				DataPath: "/api/riders/{riderId}/application-status", Tags: []string{"registration"}},
			{ID: "rider-dashboard", DisplayName: "Dashboard", Portal: "rider", Path: "/rider/dashboard",
				Flow: "rider", Stage: "approved", RequireAuth: true, Roles: []string{"rider"},
				DataPath: "/api/riders/{riderId}/deliveries"},

			// moderator
			{ID: "moderator-dashboard", DisplayName: "Moderation", Portal: "moderator", Path: "/moderator/dashboard",
				RequireAuth: true, Roles: []string{"moderator"}, DataPath: "/api/moderation/summary"},
			{ID: "moderator-pending-riders", DisplayName: "Pending riders", Portal: "moderator", Path: "/moderator/riders/pending",
				RequireAuth: true, Roles: []string{"moderator"}, DataPath: "/api/riders?status=pending_admin_approval"},
		},
	}
}
