package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TodoReminderJobName is the name the reminder job is registered under
const TodoReminderJobName = "todo_reminder"

const reminderTimeLayout = "02.01.2006 15:04"

// ReminderResult summarizes one reminder run
type ReminderResult struct {
	Tenants int
	Sent    int
	SMSSent int
	Failed  int
}

// ReminderMetrics receives the delivery counts of each run
type ReminderMetrics interface {
	RecordReminders(ctx context.Context, mails, sms int)
}

// TodoReminder mails sales people about their todos that fall due within
// the reminder window. Phone call todos also go out as SMS when the sales
// person has a mobile number. A todo is reminded at most once.
type TodoReminder struct {
	tenants      identity.TenantRepository
	users        identity.UserRepository
	salesPersons crm.SalesPersonRepository
	todos        crm.TodoRepository
	mailer       notification.Mailer
	sms          notification.SMSSender
	translator   *i18n.Translator
	metrics      ReminderMetrics
	window       time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// TodoReminderDeps groups the collaborators of the reminder job
type TodoReminderDeps struct {
	Tenants      identity.TenantRepository
	Users        identity.UserRepository
	SalesPersons crm.SalesPersonRepository
	Todos        crm.TodoRepository
	Mailer       notification.Mailer
	SMS          notification.SMSSender
	Translator   *i18n.Translator
	Metrics      ReminderMetrics // optional
}

// NewTodoReminder creates the reminder job
func NewTodoReminder(deps TodoReminderDeps, cfg config.SchedulerConfig, logger *zap.Logger) *TodoReminder {
	if logger == nil {
		logger = zap.NewNop()
	}
	window := cfg.ReminderWindow
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &TodoReminder{
		tenants:      deps.Tenants,
		users:        deps.Users,
		salesPersons: deps.SalesPersons,
		todos:        deps.Todos,
		mailer:       deps.Mailer,
		sms:          deps.SMS,
		translator:   deps.Translator,
		metrics:      deps.Metrics,
		window:       window,
		logger:       logger,
		now:          time.Now,
	}
}

// Register schedules the reminder on the configured cron expression
func (r *TodoReminder) Register(s *Scheduler, cronExpr string) error {
	return s.Register(TodoReminderJobName, cronExpr, func(ctx context.Context) error {
		_, err := r.Run(ctx)
		return err
	})
}

// Run sends the reminders that are due for all active tenants
func (r *TodoReminder) Run(ctx context.Context) (ReminderResult, error) {
	var result ReminderResult

	tenantIDs, err := r.tenants.FindActiveIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("list active tenants: %w", err)
	}

	now := r.now()
	var errs []error
	for _, tenantID := range tenantIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result.Tenants++
		if err := r.runTenant(ctx, tenantID, now, &result); err != nil {
			r.logger.Error("Reminder run failed for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("tenant %s: %w", tenantID, err))
		}
	}

	if r.metrics != nil {
		r.metrics.RecordReminders(ctx, result.Sent, result.SMSSent)
	}
	if result.Sent > 0 || result.Failed > 0 {
		r.logger.Info("Todo reminders processed",
			zap.Int("tenants", result.Tenants),
			zap.Int("sent", result.Sent),
			zap.Int("sms_sent", result.SMSSent),
			zap.Int("failed", result.Failed),
		)
	}
	return result, errors.Join(errs...)
}

func (r *TodoReminder) runTenant(ctx context.Context, tenantID uuid.UUID, now time.Time, result *ReminderResult) error {
	todos, err := r.todos.FindDueForReminder(ctx, tenantID, now.Add(-r.window), now.Add(r.window))
	if err != nil {
		return fmt.Errorf("find due todos: %w", err)
	}
	if len(todos) == 0 {
		return nil
	}

	tenantLang := r.translator.Default()
	if tenant, err := r.tenants.FindByID(ctx, tenantID); err == nil {
		tenantLang = r.translator.Normalize(tenant.Lang)
	}

	// Several todos usually belong to the same sales person
	people := make(map[uuid.UUID]*recipient)
	for _, todo := range todos {
		if !todo.NeedsReminder(now, r.window) {
			continue
		}
		to, ok := people[todo.SalesPersonID]
		if !ok {
			to, err = r.loadRecipient(ctx, tenantID, todo.SalesPersonID, tenantLang)
			if err != nil {
				r.logger.Warn("Cannot resolve reminder recipient",
					zap.String("tenant_id", tenantID.String()),
					zap.String("todo_id", todo.ID.String()),
					zap.Error(err),
				)
				result.Failed++
				continue
			}
			people[todo.SalesPersonID] = to
		}

		if err := r.remind(ctx, todo, to, now, result); err != nil {
			r.logger.Warn("Todo reminder not sent",
				zap.String("tenant_id", tenantID.String()),
				zap.String("todo_id", todo.ID.String()),
				zap.Error(err),
			)
			result.Failed++
		}
	}
	return nil
}

type recipient struct {
	name   string
	email  string
	mobile string
	lang   string
}

func (r *TodoReminder) loadRecipient(ctx context.Context, tenantID, salesPersonID uuid.UUID, tenantLang string) (*recipient, error) {
	sp, err := r.salesPersons.FindByID(ctx, tenantID, salesPersonID)
	if err != nil {
		return nil, fmt.Errorf("load sales person: %w", err)
	}
	user, err := r.users.FindByID(ctx, tenantID, sp.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	lang := tenantLang
	if sp.Lang != "" && r.translator.Supported(sp.Lang) {
		lang = sp.Lang
	}
	name := sp.FullName()
	if name == "" {
		name = user.Username
	}
	return &recipient{
		name:   name,
		email:  user.Email,
		mobile: sp.MobileNumber,
		lang:   lang,
	}, nil
}

func (r *TodoReminder) remind(ctx context.Context, todo *crm.Todo, to *recipient, now time.Time, result *ReminderResult) error {
	action := r.translator.T(to.lang, todo.Action.LabelKey())
	due := todo.DueAt.In(time.Local).Format(reminderTimeLayout)

	if to.email != "" {
		msg := notification.Email{
			ToName:    to.name,
			ToAddress: to.email,
			Subject:   r.translator.T(to.lang, "mail.reminder.subject", action, due),
			Text:      r.translator.T(to.lang, "mail.reminder.body", to.name, action, due, todo.ActionDescription),
		}
		if err := r.mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
	}

	if todo.Action == crm.TodoActionPhone && to.mobile != "" && r.sms != nil {
		body := r.translator.T(to.lang, "sms.reminder", action, due, todo.ActionDescription)
		if err := r.sms.SendSMS(ctx, to.mobile, body); err != nil {
			// The mail already went out, so the todo still counts as reminded
			r.logger.Warn("Reminder SMS not sent",
				zap.String("todo_id", todo.ID.String()),
				zap.Error(err),
			)
		} else {
			result.SMSSent++
		}
	}

	todo.MarkReminded(now)
	if err := r.todos.Update(ctx, todo); err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	result.Sent++
	return nil
}
