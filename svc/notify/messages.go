package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

// text is a rendered notification: Subject is used for email only.
type text struct {
	Subject string
	Body    string
}

func receiptLine(attached bool, what string) string {
	if attached {
		return fmt.Sprintf("📎 Your %s is attached to this message.", what)
	}
	return fmt.Sprintf("📄 Your %s has been generated for your records.", what)
}

func (n *Notifier) enrolledText(m catalog.Member, sub membership.Subscription, plan catalog.Plan, receipt bool) text {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Welcome to %s, %s!\n\n", n.cfg.GymName, m.FullName)
	b.WriteString("✅ Your membership has been registered.\n\n")
	b.WriteString("📋 Membership Details:\n")
	fmt.Fprintf(&b, "• Plan: %s\n", plan.Name)
	if plan.Price > 0 {
		fmt.Fprintf(&b, "• Amount Paid: %s\n", formatRupees(plan.Price))
	}
	fmt.Fprintf(&b, "• Start Date: %s\n", formatDate(sub.StartDate))
	fmt.Fprintf(&b, "• End Date: %s\n", formatDate(sub.EndDate))
	fmt.Fprintf(&b, "• Validity: %s\n\n", formatValidity(plan.DurationDays))
	b.WriteString("💪 You're all set to begin your fitness journey with us!\n\n")
	b.WriteString(receiptLine(receipt, "membership receipt"))
	b.WriteString("\n\n")
	b.WriteString(n.signature())
	return text{Subject: "Welcome to " + n.cfg.GymName, Body: b.String()}
}

func (n *Notifier) planChangedText(m catalog.Member, ev membership.PlanChanged, today time.Time, receipt bool) text {
	var b strings.Builder
	fmt.Fprintf(&b, "🔄 Hi %s,\n\n", m.FullName)
	b.WriteString("Your membership plan has been changed.\n\n")
	b.WriteString("📋 Plan Change Details:\n")
	fmt.Fprintf(&b, "• From: %s\n", ev.OldPlanName)
	fmt.Fprintf(&b, "• To: %s\n", ev.NewPlanName)
	fmt.Fprintf(&b, "• Effective Date: %s\n\n", formatDate(today))
	b.WriteString(receiptLine(receipt, "updated membership receipt"))
	b.WriteString("\n\n")
	b.WriteString(n.signature())
	return text{Subject: "Your membership plan has changed", Body: b.String()}
}

func (n *Notifier) renewedText(m catalog.Member, sub membership.Subscription, plan catalog.Plan, ev membership.SubscriptionRenewed, receipt bool) text {
	var b strings.Builder
	fmt.Fprintf(&b, "🔁 Hi %s,\n\n", m.FullName)
	b.WriteString("Your membership has been renewed.\n\n")
	b.WriteString("📋 Renewal Details:\n")
	if ev.Info.PlanChanged {
		fmt.Fprintf(&b, "• Plan: %s (was %s)\n", plan.Name, ev.OldPlanName)
	} else {
		fmt.Fprintf(&b, "• Plan: %s\n", plan.Name)
	}
	if plan.Price > 0 {
		fmt.Fprintf(&b, "• Amount: %s\n", formatRupees(plan.Price))
	}
	fmt.Fprintf(&b, "• Start Date: %s\n", formatDate(sub.StartDate))
	fmt.Fprintf(&b, "• End Date: %s\n", formatDate(sub.EndDate))
	fmt.Fprintf(&b, "• Extended By: %s\n\n", formatValidity(ev.Info.DaysExtended))
	b.WriteString(receiptLine(receipt, "renewal receipt"))
	b.WriteString("\n\n")
	b.WriteString(n.signature())
	return text{Subject: "Your membership has been renewed", Body: b.String()}
}

func (n *Notifier) cancelledText(m catalog.Member, ev membership.SubscriptionCancelled) text {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", m.FullName)
	fmt.Fprintf(&b, "Your %s membership has been cancelled.\n\n", ev.PlanName)
	b.WriteString("If this was not expected, please contact the front desk.\n\n")
	b.WriteString(n.signature())
	return text{Subject: "Your membership has been cancelled", Body: b.String()}
}

func (n *Notifier) reminderText(m catalog.Member, ev membership.ExpiryReminder) text {
	var b strings.Builder
	if ev.DaysUntilExpiry <= 0 {
		fmt.Fprintf(&b, "⚠️ Hi %s,\n\n", m.FullName)
		b.WriteString("Your membership has expired!\n\n")
		b.WriteString("📋 Membership Details:\n")
		fmt.Fprintf(&b, "• Plan: %s\n", ev.PlanName)
		fmt.Fprintf(&b, "• Expired on: %s\n\n", formatDate(ev.EndDate))
		b.WriteString("💪 Don't let your fitness journey stop here!\n")
		b.WriteString("🔄 Renew your membership today to continue your workouts.\n\n")
		b.WriteString(n.signature())
		return text{Subject: "Your membership has expired", Body: b.String()}
	}

	fmt.Fprintf(&b, "⏰ Hi %s,\n\n", m.FullName)
	fmt.Fprintf(&b, "Your membership expires in %s!\n\n", plural(ev.DaysUntilExpiry, "day"))
	b.WriteString("📋 Membership Details:\n")
	fmt.Fprintf(&b, "• Plan: %s\n", ev.PlanName)
	fmt.Fprintf(&b, "• Expires on: %s\n\n", formatDate(ev.EndDate))
	b.WriteString("🔄 Renew your membership to continue your workouts.\n\n")
	b.WriteString(n.signature())
	return text{Subject: fmt.Sprintf("Your membership expires in %s", plural(ev.DaysUntilExpiry, "day")), Body: b.String()}
}

func (n *Notifier) signature() string {
	var b strings.Builder
	if n.cfg.GymPhone != "" {
		fmt.Fprintf(&b, "📞 Questions? Call us at %s.\n", n.cfg.GymPhone)
	} else {
		b.WriteString("📞 For any questions, feel free to contact us.\n")
	}
	fmt.Fprintf(&b, "Thank you! 🏋️ Team %s", n.cfg.GymName)
	return b.String()
}
