package recommend

import "strings"

var audienceSegments = []string{
	"High-value returning customers",
	"Cart abandoners (24h)",
	"New visitors with high engagement",
	"Lapsed customers (30+ days)",
	"Mobile-first shoppers",
	"Weekend browsers",
	"Price-sensitive buyers",
	"Premium product enthusiasts",
}

var timings = []string{
	"Immediately",
	"Within 2 hours",
	"Tomorrow 9 AM",
	"Next weekend",
	"During lunch hours (12-1 PM)",
	"Evening (6-8 PM)",
	"After payday (1st of month)",
	"Before weekend (Thursday-Friday)",
}

// genericMessage is used for channels without a template set.
const genericMessage = "Generic marketing message"

// messageTemplates returns the templates for channel, or nil when the channel
// has none. Email templates mention the audience.
func messageTemplates(channel, audience string) []string {
	switch channel {
	case "email":
		return []string{
			"Exclusive offer for " + strings.ToLower(audience) + "! 20% off your next purchase",
			"We miss you! Come back and save 15% on your favorite items",
			"Limited time: Flash sale just for you!",
			"Your cart is waiting... Complete your purchase with free shipping",
		}
	case "sms":
		return []string{
			"FLASH SALE: 25% off ends tonight! Use code SAVE25",
			"Hi! Your favorite item is back in stock. Get it now!",
			"⚡ 2 HOURS LEFT: Don't miss our biggest sale of the year",
			"FREE shipping today only. Complete your order now!",
		}
	case "push":
		return []string{
			"Personalized recommendation ready for you!",
			"Items in your wishlist are on sale now",
			"New arrivals matching your style preferences",
			"Special reward unlocked! Tap to claim",
		}
	case "whatsapp":
		return []string{
			"Hi! We noticed you were browsing. Need help finding something?",
			"Great news! Your favorite brand just launched new items",
			"Quick question: How was your recent purchase experience?",
			"our cart expires soon. Secure your items now!",
		}
	}
	return nil
}

var (
	gtmTopPages        = []string{"/product-category", "/checkout", "/homepage"}
	shopifyTopProducts = []string{"Product A", "Product B", "Product C"}
)
